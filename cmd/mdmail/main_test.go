package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/mdmail"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestReadInputsFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	got, err := readInputs(context.Background(), []string{path}, nil)
	if err != nil {
		t.Fatalf("readInputs file: %v", err)
	}
	if got != "hello\n" {
		t.Fatalf("unexpected file content: %q", got)
	}

	got, err = readInputs(context.Background(), []string{"file://" + path}, nil)
	if err != nil {
		t.Fatalf("readInputs file URL: %v", err)
	}
	if got != "hello\n" {
		t.Fatalf("unexpected file URL content: %q", got)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()
	got, err = readInputs(context.Background(), []string{srv.URL}, nil)
	if err != nil {
		t.Fatalf("readInputs http: %v", err)
	}
	if got != "remote\n" {
		t.Fatalf("unexpected http content: %q", got)
	}
}

func TestReadInputsJoinsWithBlankLine(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("- one\n"), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("# two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	got, err := readInputs(context.Background(), []string{first, second}, nil)
	if err != nil {
		t.Fatalf("readInputs concat: %v", err)
	}
	if got != "- one\n\n# two\n" {
		t.Fatalf("unexpected concatenated content: %q", got)
	}
}

func TestReadInputsRejectsBinaryAndHTTPErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	if err := os.WriteFile(path, []byte{'a', 0, 'b'}, 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	if _, err := readInputs(context.Background(), []string{path}, nil); err == nil || !strings.Contains(err.Error(), "binary") {
		t.Fatalf("expected binary input error, got %v", err)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := readInputs(context.Background(), []string{srv.URL}, nil); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestRunRendersStdin(t *testing.T) {
	code, out, errOut := runCLI(t, "# Hi\n\nSome **bold**.\n", "--text-color", "#1A2B3C")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"<h1 ", "<strong>bold</strong>", "rgb(26,43,60)", mdmail.DefaultFooter} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunPresetAndFlagsLayer(t *testing.T) {
	stylePath := filepath.Join(t.TempDir(), "style.yaml")
	if err := os.WriteFile(stylePath, []byte("fontSize: 19\nmaxWidth: 640\n"), 0o644); err != nil {
		t.Fatalf("write style: %v", err)
	}
	code, out, errOut := runCLI(t, "text\n", "--preset", "dark", "--style", stylePath, "--max-width", "700", "--no-footer")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"font-size: 19px;", "max-width: 700px;", "rgb(17,24,39)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, mdmail.DefaultFooter) {
		t.Fatalf("footer should be omitted")
	}
}

func TestRunPlain(t *testing.T) {
	code, out, errOut := runCLI(t, "- one\n- [two](https://example.com)\n", "--plain", "--width", "40")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"- one", "- two (https://example.com)", strings.ToUpper(mdmail.DefaultFooter)} {
		if !strings.Contains(out, want) {
			t.Fatalf("plain output missing %q:\n%s", want, out)
		}
	}
}

func TestRunLint(t *testing.T) {
	code, out, errOut := runCLI(t, "# Clean\n\nNothing to see.\n", "--lint")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "" {
		t.Fatalf("expected no findings, got %q", out)
	}
}

func TestRunSendToOutbox(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MDMAIL_OUTBOX_DIR", dir)
	t.Setenv("POSTMARK_SERVER_TOKEN", "")
	t.Setenv("POSTMARK_ACCOUNT_TOKEN", "")

	code, _, errOut := runCLI(t, "---\nsubject: Launch day\n---\nWe shipped.\n", "--send-to", "reader@example.com")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*_launch_day.*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected html, txt and json files, got %v", matches)
	}
}

func TestRunSendToNeedsSubject(t *testing.T) {
	t.Setenv("MDMAIL_OUTBOX_DIR", t.TempDir())
	code, _, _ := runCLI(t, "no heading here\n", "--send-to", "reader@example.com")
	if code != exitUsage {
		t.Fatalf("expected usage exit, got %d", code)
	}
}

func TestRunListPresetsAndUnknownPreset(t *testing.T) {
	code, out, _ := runCLI(t, "", "--list-presets")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if strings.TrimSpace(out) != strings.Join(mdmail.AvailablePresets(), "\n") {
		t.Fatalf("unexpected preset list %q", out)
	}
	code, _, errOut := runCLI(t, "x", "--preset", "nope")
	if code != exitUsage || !strings.Contains(errOut, `unknown preset "nope"`) {
		t.Fatalf("expected unknown preset error, got %d %q", code, errOut)
	}
}

func TestRunWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")
	code, out, errOut := runCLI(t, "hello\n", "-o", path, "--document")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "" {
		t.Fatalf("stdout should be empty, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Fatalf("expected full document, got %q", string(data)[:40])
	}
}

func TestFirstHeading(t *testing.T) {
	cases := map[string]string{
		"intro\n## The **big** news\n# later": "The big news",
		"no heading":                          "",
		"#nospace\n### Third":                 "Third",
	}
	for src, want := range cases {
		if got := firstHeading(src); got != want {
			t.Fatalf("firstHeading(%q)=%q want %q", src, got, want)
		}
	}
}

package mdmail

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPRender(t *testing.T) {
	t.Parallel()
	src := readSample(t, "kitchen-sink.md")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.md":
			w.Header().Set("Content-Type", "text/markdown")
			_, _ = w.Write([]byte(src))
		case "/binary":
			_, _ = w.Write([]byte("\x00\x01\x02PNG"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := HTTPRender(context.Background(), HTTPRenderRequest{
		URL:     srv.URL + "/doc.md",
		Client:  srv.Client(),
		Writer:  &out,
		Options: []RenderOption{WithDocument(true)},
	})
	if err != nil {
		t.Fatalf("HTTPRender: %v", err)
	}
	if want := RenderString(src, DefaultStyle(), WithDocument(true)); out.String() != want {
		t.Fatalf("remote render differs from local render")
	}

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/missing", Writer: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/binary", Writer: &bytes.Buffer{}})
	if !errors.Is(err, ErrBinaryInput) {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}

func TestHTTPRenderRequestValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		req  HTTPRenderRequest
		want string
	}{
		{name: "missing url", req: HTTPRenderRequest{Writer: &bytes.Buffer{}}, want: "URL is required"},
		{name: "missing writer", req: HTTPRenderRequest{URL: "https://example.com"}, want: "Writer is nil"},
		{name: "scheme", req: HTTPRenderRequest{URL: "ftp://example.com/a.md", Writer: &bytes.Buffer{}}, want: "unsupported scheme"},
		{name: "bad url", req: HTTPRenderRequest{URL: "http://[::1", Writer: &bytes.Buffer{}}, want: "build request"},
	}
	for _, tc := range tests {
		err := HTTPRender(context.Background(), tc.req)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestHTTPRenderCanceled(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# never"))
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := HTTPRender(ctx, HTTPRenderRequest{URL: srv.URL, Client: srv.Client(), Writer: &bytes.Buffer{}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

package mdmail

import (
	"strings"
	"testing"
)

func TestPreprocess(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untouched", "plain *text*", "plain *text*"},
		{"trailing backslash", "line one\\\nline two\\", "line one\nline two"},
		{"escaped markers", `\*a\* \_b\_ \~c\~ \` + "`d\\`", "*a* _b_ ~c~ `d`"},
		{"other escapes stay", `C:\path\to`, `C:\path\to`},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"crlf with backslash", "a\\\r\nb", "a\nb"},
	}
	for _, tc := range tests {
		if got := Preprocess(tc.in); got != tc.want {
			t.Fatalf("%s: Preprocess(%q)=%q want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestEscapedUnderscoreStaysLiteral(t *testing.T) {
	t.Parallel()
	out := RenderString(`file\_name.txt`, DefaultStyle())
	if !strings.Contains(out, ">file_name.txt</p>") {
		t.Fatalf("escaped underscore should lose its backslash: %q", out)
	}
	if countSelector(t, out, "em") != 0 {
		t.Fatalf("single underscore should not format: %q", out)
	}
}

package mdmail

import (
	"regexp"
	"strings"
)

var (
	trailingBackslashRe = regexp.MustCompile(`(?m)\\$`)
	escapedSpecialRe    = regexp.MustCompile("\\\\([*_~`])")
	lineEndingReplacer  = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Preprocess normalizes editor export artifacts before parsing. The steps run
// in a fixed order: trailing backslashes are stripped from every line, escaped
// newlines collapse to plain newlines, then backslash-escaped *, _, ~ and `
// lose their backslash.
func Preprocess(src string) string {
	if strings.ContainsRune(src, '\r') {
		src = lineEndingReplacer.Replace(src)
	}
	if !strings.ContainsRune(src, '\\') {
		return src
	}
	src = trailingBackslashRe.ReplaceAllString(src, "")
	src = strings.ReplaceAll(src, "\\\n", "\n")
	return escapedSpecialRe.ReplaceAllString(src, "$1")
}

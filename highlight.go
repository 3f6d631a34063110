package mdmail

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// newHighlighter returns a code highlighter that emits inline-styled spans.
// It reports false when the language is unknown or formatting fails so the
// caller can fall back to escaped plain code.
func newHighlighter(styleName string) func(lang, code string) (string, bool) {
	style := styles.Get(styleName)
	formatter := chromahtml.New(
		chromahtml.WithClasses(false),
		chromahtml.PreventSurroundingPre(true),
	)
	return func(lang, code string) (string, bool) {
		lexer := lexers.Get(lang)
		if lexer == nil {
			return "", false
		}
		iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
		if err != nil {
			return "", false
		}
		var b strings.Builder
		if err := formatter.Format(&b, style, iterator); err != nil {
			return "", false
		}
		return b.String(), true
	}
}

package mdmail

import (
	"regexp"
	"strings"
)

var (
	boldStarRe    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderRe   = regexp.MustCompile(`__(.+?)__`)
	italicStarRe  = regexp.MustCompile(`\*(.+?)\*`)
	italicUnderRe = regexp.MustCompile(`_(.+?)_`)
	strikeRe      = regexp.MustCompile(`~~(.+?)~~`)
	codeSpanRe    = regexp.MustCompile("`(.+?)`")
	inlineImageRe = regexp.MustCompile(`!\[(.*?)\]\((.+?)\)`)
	linkRe        = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)
)

// entityPrefixes are the sequences after '&' that mark an already escaped entity.
var entityPrefixes = [...]string{"amp;", "lt;", "gt;", "quot;", "#"}

// inlineFormatter rewrites inline markdown spans of a single block into HTML.
type inlineFormatter struct {
	codeStyle  string
	linkStyle  string
	imageStyle string
}

func newInlineFormatter(style StyleConfig) inlineFormatter {
	return inlineFormatter{
		codeStyle: styleDecls(
			"background-color", "rgba(0,0,0,0.05)",
			"padding", "2px 6px",
			"border-radius", "3px",
			"font-family", monospaceStack,
			"font-size", "0.9em",
		),
		linkStyle: styleDecls(
			"color", CSSColor(style.TextColor),
			"text-decoration", "underline",
		),
		imageStyle: styleDecls(
			"max-width", "100%",
			"height", "auto",
			"border", "0",
			"vertical-align", "middle",
		),
	}
}

// format escapes text and applies the inline passes in their fixed order:
// bold, italic, strikethrough, code, image, link. Images run before links so
// the leading '!' is consumed; bold runs before italic so '**' is not split.
// When bold is false the bold markers are removed instead of rendered.
func (f inlineFormatter) format(text string, bold bool) string {
	out := escapeText(text)
	if bold {
		out = boldStarRe.ReplaceAllString(out, "<strong>$1</strong>")
		out = boldUnderRe.ReplaceAllString(out, "<strong>$1</strong>")
	} else {
		out = boldStarRe.ReplaceAllString(out, "$1")
		out = boldUnderRe.ReplaceAllString(out, "$1")
	}
	out = italicStarRe.ReplaceAllString(out, "<em>$1</em>")
	out = italicUnderRe.ReplaceAllString(out, "<em>$1</em>")
	out = strikeRe.ReplaceAllString(out, "<s>$1</s>")
	out = replaceSubmatches(out, codeSpanRe, func(m []string) string {
		return `<code style="` + f.codeStyle + `">` + m[1] + "</code>"
	})
	out = replaceSubmatches(out, inlineImageRe, func(m []string) string {
		return `<img src="` + escapeQuotes(m[2]) + `" alt="` + escapeQuotes(m[1]) + `" style="` + f.imageStyle + `">`
	})
	out = replaceSubmatches(out, linkRe, func(m []string) string {
		return `<a href="` + escapeQuotes(m[2]) + `" style="` + f.linkStyle + `">` + m[1] + "</a>"
	})
	return out
}

// escapeText escapes &, < and >. An ampersand that already starts an entity
// (&amp; &lt; &gt; &quot; or a numeric reference) is left alone so input is
// never double-escaped.
func escapeText(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if startsEntity(s[i+1:]) {
				b.WriteByte('&')
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func startsEntity(rest string) bool {
	for _, p := range entityPrefixes {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

// escapeCode escapes every &, < and > so code is displayed literally.
func escapeCode(s string) string {
	return codeEscaper.Replace(s)
}

var codeEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// escapeAttr escapes raw text for use inside a double-quoted attribute.
func escapeAttr(s string) string {
	return escapeQuotes(escapeText(s))
}

func replaceSubmatches(text string, pattern *regexp.Regexp, replace func([]string) string) string {
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(matches)*32)
	last := 0
	groups := make([]string, pattern.NumSubexp()+1)
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = text[m[2*i]:m[2*i+1]]
			} else {
				groups[i] = ""
			}
		}
		b.WriteString(replace(groups))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

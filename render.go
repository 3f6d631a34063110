package mdmail

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
)

var parserPool = sync.Pool{
	New: func() any {
		return &blockParser{}
	},
}

var htmlMinifier = func() *minify.M {
	m := minify.New()
	// No CSS minifier: it would turn rgb() colors back into hex.
	m.Add("text/html", &minhtml.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
	return m
}()

// RenderRequest configures Render.
type RenderRequest struct {
	Reader  io.Reader
	Writer  io.Writer
	Style   StyleConfig
	Options []RenderOption
}

// Render reads the whole markdown source from Reader and writes email HTML to
// Writer. A zero Style selects DefaultStyle.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: writer is nil")
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return fmt.Errorf("render: read: %w", err)
	}
	style := req.Style
	if style == (StyleConfig{}) {
		style = DefaultStyle()
	}
	if _, err := io.WriteString(req.Writer, RenderString(string(src), style, req.Options...)); err != nil {
		return fmt.Errorf("render: write: %w", err)
	}
	return nil
}

// RenderString converts markdown to email-safe HTML. It is a pure function of
// its arguments and never fails: malformed markdown degrades to literal text.
func RenderString(src string, style StyleConfig, opts ...RenderOption) string {
	cfg := defaultRenderConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.frontMatter {
		doc := ParseDocument(src, style)
		src, style = doc.Body, doc.Style
	}
	var highlight func(lang, code string) (string, bool)
	if cfg.highlight != "" {
		highlight = newHighlighter(cfg.highlight)
	}

	p := parserPool.Get().(*blockParser)
	p.reset(style, highlight)
	frags := p.parse(src)
	if n := len(frags); n > 0 {
		frags[n-1].marginBottom = 0
	}

	var b strings.Builder
	b.Grow(len(src)*4 + 1024)
	if cfg.document {
		writeDocumentStart(&b, style)
	}
	writeContainer(&b, frags, style, cfg.footer)
	if cfg.document {
		writeDocumentEnd(&b)
	}
	p.reset(StyleConfig{}, nil)
	parserPool.Put(p)

	out := b.String()
	if cfg.minify {
		if minified, err := htmlMinifier.String("text/html", out); err == nil {
			out = minified
		}
	}
	return out
}

func writeContainer(b *strings.Builder, frags []fragment, style StyleConfig, footer string) {
	b.WriteString(`<div dir="ltr" style="`)
	b.WriteString(styleDecls(
		"max-width", cssPx(style.MaxWidth),
		"margin", "0 auto",
		"padding", cssPx(style.MarginTop)+" "+cssPx(style.MarginSides)+" "+cssPx(style.MarginBottom)+" "+cssPx(style.MarginSides),
		"font-family", EscapeFontFamily(style.FontFamily),
		"font-size", cssPx(style.FontSize),
		"line-height", cssNumber(style.LineHeight),
		"color", CSSColor(style.TextColor),
		"background-color", CSSColor(style.BackgroundColor),
		"text-align", "left",
	))
	b.WriteString("\">\n")
	for _, f := range frags {
		f.writeTo(b)
		b.WriteByte('\n')
	}
	if footer != "" {
		writeFooter(b, style, footer)
		b.WriteByte('\n')
	}
	b.WriteString("</div>")
}

func writeFooter(b *strings.Builder, style StyleConfig, text string) {
	b.WriteString(`<div style="`)
	b.WriteString(styleDecls(
		"margin", cssPx(style.ParagraphSpacing*2)+" 0 0 0",
		"padding", "12px 0 0 0",
		"border-top", "1px solid "+cssColorAlpha(style.TextColor, 0.15),
		"font-family", monospaceStack,
		"font-size", "11px",
		"line-height", "1.4",
		"letter-spacing", "0.12em",
		"text-transform", "uppercase",
		"color", cssColorAlpha(style.TextColor, 0.5),
		"text-align", "center",
	))
	b.WriteString(`">`)
	b.WriteString(escapeCode(text))
	b.WriteString("</div>")
}

func writeDocumentStart(b *strings.Builder, style StyleConfig) {
	bg := CSSColor(style.BackgroundColor)
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\" dir=\"ltr\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("<meta name=\"x-apple-disable-message-reformatting\">\n")
	b.WriteString("</head>\n")
	b.WriteString(`<body style="margin: 0; padding: 0; background-color: ` + bg + ";\">\n")
	b.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0" style="background-color: ` + bg + ";\">\n")
	b.WriteString("<tr>\n<td align=\"center\">\n")
	b.WriteString(`<!--[if mso]><table role="presentation" width="` + strconv.Itoa(style.MaxWidth) + `" cellpadding="0" cellspacing="0" border="0"><tr><td><![endif]-->`)
	b.WriteByte('\n')
}

func writeDocumentEnd(b *strings.Builder) {
	b.WriteString("\n<!--[if mso]></td></tr></table><![endif]-->\n")
	b.WriteString("</td>\n</tr>\n</table>\n</body>\n</html>\n")
}

package mdmail

import (
	"strconv"
	"strings"
)

type parserState uint8

const (
	stateDefault parserState = iota
	stateList
	stateBlockquote
	stateCodeFence
	stateTable
)

// headingScale multiplies the base font size for heading levels 1-3.
var headingScale = [3]float64{2.25, 1.6, 1.2}

const (
	headingLineHeightScale = 0.9
	codeFontScale          = 0.9
	monospaceStack         = "Menlo, Consolas, Monaco, 'Courier New', monospace"
	listIndent             = "24px"
	quoteIndent            = "16px"
)

// blockParser turns preprocessed source into fragments. Exactly one
// multi-line construct can be open at a time; state says which one and its
// buffer holds the pending lines.
type blockParser struct {
	style     StyleConfig
	inline    inlineFormatter
	highlight func(lang, code string) (string, bool)

	textStyle  string
	tintBorder string

	state parserState

	listOrdered bool
	listStart   int
	listItems   []string

	quoteLines []string

	fenceLang  string
	fenceLines []string

	tableRows   [][]string
	tableSeen   int
	tableHeader bool

	out []fragment
}

func (p *blockParser) reset(style StyleConfig, highlight func(lang, code string) (string, bool)) {
	p.style = style
	p.inline = newInlineFormatter(style)
	p.highlight = highlight
	p.textStyle = styleDecls(
		"font-size", cssPx(style.FontSize),
		"line-height", cssNumber(style.LineHeight),
	)
	p.tintBorder = "1px solid " + cssColorAlpha(style.TextColor, 0.2)
	p.state = stateDefault
	p.listOrdered = false
	p.listStart = 0
	p.listItems = p.listItems[:0]
	p.quoteLines = p.quoteLines[:0]
	p.fenceLang = ""
	p.fenceLines = p.fenceLines[:0]
	p.tableRows = p.tableRows[:0]
	p.tableSeen = 0
	p.tableHeader = false
	p.out = p.out[:0]
}

func (p *blockParser) parse(src string) []fragment {
	for _, raw := range strings.Split(Preprocess(src), "\n") {
		if p.state == stateCodeFence {
			if strings.HasPrefix(strings.TrimSpace(raw), "```") {
				p.flushFence()
			} else {
				p.fenceLines = append(p.fenceLines, raw)
			}
			continue
		}
		p.apply(classifyLine(strings.TrimSpace(raw)))
	}
	// The empty line after a final newline is not part of an open fence.
	if n := len(p.fenceLines); p.state == stateCodeFence && n > 0 && p.fenceLines[n-1] == "" {
		p.fenceLines = p.fenceLines[:n-1]
	}
	p.flushList()
	p.flushQuote()
	p.flushFence()
	p.flushTable()
	return p.out
}

func (p *blockParser) apply(b block) {
	switch b.kind {
	case blockFence:
		p.flushOpen()
		p.state = stateCodeFence
		p.fenceLang = b.text
		p.fenceLines = p.fenceLines[:0]
	case blockBlank:
		if p.state == stateBlockquote {
			p.flushQuote()
		}
	case blockTableRow, blockTableSeparator:
		if p.state != stateTable {
			p.flushOpen()
			p.state = stateTable
			p.tableRows = p.tableRows[:0]
			p.tableSeen = 0
			p.tableHeader = false
		}
		p.tableSeen++
		if b.kind == blockTableSeparator && p.tableSeen == 2 {
			p.tableHeader = true
			return
		}
		p.tableRows = append(p.tableRows, b.cells)
	case blockHeading:
		p.flushOpen()
		p.emitHeading(b.level, strings.TrimSpace(b.text))
	case blockQuote:
		if p.state != stateBlockquote {
			p.flushOpen()
			p.state = stateBlockquote
		}
		p.quoteLines = append(p.quoteLines, b.text)
	case blockListItem:
		if p.state != stateList || p.listOrdered != b.ordered {
			p.flushOpen()
			p.state = stateList
			p.listOrdered = b.ordered
			p.listStart = b.start
		}
		p.listItems = append(p.listItems, p.inline.format(strings.TrimSpace(b.text), true))
	case blockRule:
		p.flushOpen()
		p.emitRule()
	case blockImages:
		p.flushOpen()
		for _, img := range b.images {
			p.emitImage(img)
		}
	default:
		p.flushOpen()
		p.emitParagraph(b.text)
	}
}

// flushOpen emits whichever multi-line construct is open.
func (p *blockParser) flushOpen() {
	switch p.state {
	case stateList:
		p.flushList()
	case stateBlockquote:
		p.flushQuote()
	case stateTable:
		p.flushTable()
	case stateCodeFence:
		p.flushFence()
	}
}

func (p *blockParser) emit(f fragment) {
	p.out = append(p.out, f)
}

func (p *blockParser) emitHeading(level int, text string) {
	top := cssNumber(p.style.HeadingTopMargin) + "rem"
	if len(p.out) == 0 {
		top = "0"
	}
	p.emit(fragment{
		tag:          "h" + strconv.Itoa(level),
		marginTop:    top,
		marginBottom: p.style.ParagraphSpacing,
		style: styleDecls(
			"font-size", cssPx(scalePx(p.style.FontSize, headingScale[level-1])),
			"line-height", cssNumber(p.style.LineHeight*headingLineHeightScale),
			"font-weight", strconv.Itoa(p.style.HeadingWeight),
		),
		inner: p.inline.format(text, false),
	})
}

func (p *blockParser) emitParagraph(text string) {
	p.emit(fragment{
		tag:          "p",
		marginBottom: p.style.ParagraphSpacing,
		style:        p.textStyle + " font-weight: " + strconv.Itoa(p.style.BodyWeight) + ";",
		inner:        p.inline.format(text, true),
	})
}

func (p *blockParser) emitRule() {
	p.emit(fragment{
		tag:          "hr",
		void:         true,
		marginTop:    cssPx(p.style.ParagraphSpacing),
		marginBottom: p.style.ParagraphSpacing,
		style: styleDecls(
			"border", "none",
			"border-top", "1px solid "+cssColorAlpha(p.style.TextColor, 0.3),
			"height", "0",
		),
	})
}

func (p *blockParser) emitImage(img imageRef) {
	imgStyle := styleDecls(
		"display", "block",
		"width", "100%",
		"max-width", "100%",
		"height", "auto",
		"border", "0",
	)
	p.emit(fragment{
		tag:          "div",
		marginBottom: p.style.ParagraphSpacing,
		style: styleDecls(
			"border-radius", cssPx(p.style.ImageRadius),
			"overflow", "hidden",
			"line-height", "0",
			"font-size", "0",
		),
		inner: `<img src="` + escapeAttr(img.src) + `" alt="` + escapeAttr(img.alt) + `" style="` + imgStyle + `">`,
	})
}

func (p *blockParser) flushList() {
	if p.state != stateList {
		return
	}
	p.state = stateDefault
	if len(p.listItems) == 0 {
		return
	}
	itemStyle := styleDecls(
		"margin", "0 0 "+cssPx(scalePx(p.style.ParagraphSpacing, 0.5))+" 0",
	) + " " + p.textStyle + " font-weight: " + strconv.Itoa(p.style.BodyWeight) + ";"
	var b strings.Builder
	for _, item := range p.listItems {
		b.WriteString(`<li style="`)
		b.WriteString(itemStyle)
		b.WriteString(`">`)
		b.WriteString(item)
		b.WriteString("</li>")
	}
	f := fragment{
		tag:          "ul",
		marginBottom: p.style.ParagraphSpacing,
		style:        "padding: 0 0 0 " + listIndent + "; " + p.textStyle,
		inner:        b.String(),
	}
	if p.listOrdered {
		f.tag = "ol"
		f.attrs = []attr{{name: "start", value: strconv.Itoa(p.listStart)}}
	}
	p.emit(f)
	p.listItems = p.listItems[:0]
}

func (p *blockParser) flushQuote() {
	if p.state != stateBlockquote {
		return
	}
	p.state = stateDefault
	if len(p.quoteLines) == 0 {
		return
	}
	parts := make([]string, len(p.quoteLines))
	for i, line := range p.quoteLines {
		parts[i] = p.inline.format(line, true)
	}
	p.emit(fragment{
		tag:          "blockquote",
		marginBottom: p.style.ParagraphSpacing,
		style: styleDecls(
			"padding", "0 0 0 "+quoteIndent,
			"border-left", "3px solid "+CSSColor(p.style.TextColor),
		) + " " + p.textStyle + " font-weight: " + strconv.Itoa(p.style.BodyWeight) + ";",
		inner: strings.Join(parts, "<br>"),
	})
	p.quoteLines = p.quoteLines[:0]
}

func (p *blockParser) flushFence() {
	if p.state != stateCodeFence {
		return
	}
	p.state = stateDefault
	code := strings.Join(p.fenceLines, "\n")
	body := ""
	highlighted := false
	if p.highlight != nil && p.fenceLang != "" {
		body, highlighted = p.highlight(p.fenceLang, code)
	}
	if !highlighted {
		body = escapeCode(code)
	}
	p.emit(fragment{
		tag:          "pre",
		marginBottom: p.style.ParagraphSpacing,
		style: styleDecls(
			"padding", "12px 16px",
			"background-color", "rgba(0,0,0,0.05)",
			"border-radius", "6px",
			"overflow-x", "auto",
			"white-space", "pre",
			"font-family", monospaceStack,
			"font-size", cssPx(scalePx(p.style.FontSize, codeFontScale)),
			"line-height", cssNumber(p.style.LineHeight),
		),
		inner: `<code style="font-family: ` + monospaceStack + `;">` + body + "</code>",
	})
	p.fenceLang = ""
	p.fenceLines = p.fenceLines[:0]
}

func (p *blockParser) flushTable() {
	if p.state != stateTable {
		return
	}
	p.state = stateDefault
	if len(p.tableRows) == 0 {
		return
	}
	cellStyle := styleDecls(
		"border", p.tintBorder,
		"padding", "6px 12px",
		"text-align", "left",
		"vertical-align", "top",
	)
	headStyle := cellStyle + " font-weight: " + strconv.Itoa(p.style.HeadingWeight) + ";"
	bodyStyle := cellStyle + " font-weight: " + strconv.Itoa(p.style.BodyWeight) + ";"
	var b strings.Builder
	for i, row := range p.tableRows {
		tag, style := "td", bodyStyle
		if i == 0 && p.tableHeader {
			tag, style = "th", headStyle
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<" + tag + ` style="` + style + `">`)
			b.WriteString(p.inline.format(cell, true))
			b.WriteString("</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	p.emit(fragment{
		tag: "table",
		attrs: []attr{
			{name: "cellpadding", value: "0"},
			{name: "cellspacing", value: "0"},
			{name: "border", value: "0"},
		},
		marginBottom: p.style.ParagraphSpacing,
		style:        "width: 100%; border-collapse: collapse; " + p.textStyle,
		inner:        b.String(),
	})
	p.tableRows = p.tableRows[:0]
	p.tableSeen = 0
	p.tableHeader = false
}

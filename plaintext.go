package mdmail

import (
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PlainText derives a text/plain alternative from HTML produced by
// RenderString. Paragraphs are separated by blank lines, links become
// "text (url)", list items get "- " or "N. " markers and quotes get "> ".
// Text is word wrapped at width columns when width > 0.
func PlainText(htmlOut string, width int) string {
	doc, err := html.Parse(strings.NewReader(htmlOut))
	if err != nil {
		return ""
	}
	w := plainWriter{width: width, upper: cases.Upper(language.Und)}
	w.blocks(doc)
	if len(w.out) == 0 {
		return ""
	}
	return strings.Join(w.out, "\n\n") + "\n"
}

type plainWriter struct {
	width int
	upper cases.Caser
	out   []string
}

func (w *plainWriter) add(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	w.out = append(w.out, text)
}

func (w *plainWriter) wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

func (w *plainWriter) blocks(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			w.add(w.wrap(collapseSpace(c.Data), w.width))
			continue
		case html.ElementNode, html.DocumentNode:
		default:
			continue
		}
		switch c.DataAtom {
		case atom.Head, atom.Script, atom.Style:
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			w.add(w.wrap(inlineText(c), w.width))
		case atom.Ul, atom.Ol:
			w.list(c)
		case atom.Blockquote:
			w.quote(c)
		case atom.Pre:
			w.add(strings.TrimRight(textContent(c), "\n"))
		case atom.Hr:
			w.add("----")
		case atom.Table:
			if attrValue(c, "role") == "presentation" {
				w.blocks(c)
			} else {
				w.table(c)
			}
		case atom.Div:
			switch {
			case isFooter(c):
				w.add(w.upper.String(inlineText(c)))
			case hasBlockChild(c):
				w.blocks(c)
			default:
				w.add(w.wrap(inlineText(c), w.width))
			}
		default:
			w.blocks(c)
		}
	}
}

func (w *plainWriter) list(n *html.Node) {
	number := 1
	if start, err := strconv.Atoi(attrValue(n, "start")); err == nil {
		number = start
	}
	var items []string
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		marker := "- "
		if n.DataAtom == atom.Ol {
			marker = strconv.Itoa(number) + ". "
			number++
		}
		markerWidth := ansi.PrintableRuneWidth(marker)
		body := indent.String(w.wrap(inlineText(li), w.width-markerWidth), uint(markerWidth))
		items = append(items, marker+strings.TrimPrefix(body, strings.Repeat(" ", markerWidth)))
	}
	w.add(strings.Join(items, "\n"))
}

func (w *plainWriter) quote(n *html.Node) {
	lines := strings.Split(w.wrap(inlineText(n), w.width-2), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("> "+line, " ")
	}
	w.add(strings.Join(lines, "\n"))
}

func (w *plainWriter) table(n *html.Node) {
	var rows []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom != atom.Tr {
				walk(c)
				continue
			}
			var cells []string
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
					cells = append(cells, inlineText(cell))
				}
			}
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	walk(n)
	w.add(strings.Join(rows, "\n"))
}

// inlineText flattens inline markup to text. Whitespace runs collapse to a
// single space while <br> is kept as a line break.
func inlineText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case c.Type != html.ElementNode:
			case c.DataAtom == atom.Br:
				b.WriteByte('\n')
			case c.DataAtom == atom.Img:
				alt := strings.TrimSpace(attrValue(c, "alt"))
				if alt == "" {
					alt = "image"
				}
				b.WriteString("[" + alt + "]")
			case c.DataAtom == atom.A:
				start := b.Len()
				walk(c)
				label := strings.TrimSpace(b.String()[start:])
				if href := attrValue(c, "href"); href != "" && href != label {
					b.WriteString(" (" + href + ")")
				}
			default:
				walk(c)
			}
		}
	}
	walk(n)
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = collapseSpace(line)
	}
	return strings.Join(lines, "\n")
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func isFooter(n *html.Node) bool {
	return strings.Contains(attrValue(n, "style"), "text-transform: uppercase")
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.H1, atom.H2, atom.H3, atom.Ul, atom.Ol, atom.Blockquote,
			atom.Pre, atom.Table, atom.Hr, atom.Div:
			return true
		}
	}
	return false
}

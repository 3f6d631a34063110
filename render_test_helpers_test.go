package mdmail

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

func readSample(t testing.TB, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func parseHTML(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func queryAll(t *testing.T, doc *html.Node, selector string) []*html.Node {
	t.Helper()
	sel, err := cascadia.Compile(selector)
	if err != nil {
		t.Fatalf("compile selector %q: %v", selector, err)
	}
	return sel.MatchAll(doc)
}

func countSelector(t *testing.T, out, selector string) int {
	t.Helper()
	return len(queryAll(t, parseHTML(t, out), selector))
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func styleOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "style" {
			return a.Val
		}
	}
	return ""
}

// contentBlocks returns the element children of the container, footer excluded.
func contentBlocks(t *testing.T, out string) []*html.Node {
	t.Helper()
	containers := queryAll(t, parseHTML(t, out), `div[dir="ltr"]`)
	if len(containers) != 1 {
		t.Fatalf("expected one container, got %d in %q", len(containers), out)
	}
	var blocks []*html.Node
	for c := containers[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if strings.Contains(styleOf(c), "text-transform: uppercase") {
			continue
		}
		blocks = append(blocks, c)
	}
	return blocks
}

var marginRe = regexp.MustCompile(`^margin: (\S+) 0 (\S+) 0;`)

func blockMargins(t *testing.T, n *html.Node) (top, bottom string) {
	t.Helper()
	m := marginRe.FindStringSubmatch(styleOf(n))
	if m == nil {
		t.Fatalf("<%s> style %q does not start with a margin", n.Data, styleOf(n))
	}
	return m[1], m[2]
}

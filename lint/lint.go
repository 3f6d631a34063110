// Package lint reports HTML constructs that email clients strip or ignore.
//
// Check is meant for output of the mdmail renderer but accepts any HTML. It
// looks at elements (style blocks, scripts, stylesheets, embedded content,
// class attributes) and at inline style declarations (positioning, radius on
// images, hex colors, unparsable style attributes).
package lint

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// Severity grades a finding.
type Severity string

const (
	// SeverityError marks constructs that break rendering in common clients.
	SeverityError Severity = "error"
	// SeverityWarning marks constructs that degrade in some clients.
	SeverityWarning Severity = "warning"
)

// Finding is one lint result.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Element  string   `json:"element"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: <%s> %s (%s)", f.Severity, f.Element, f.Message, f.Rule)
}

type elementRule struct {
	name     string
	severity Severity
	selector cascadia.Selector
	message  string
}

var elementRules = []elementRule{
	{"style-tag", SeverityError, cascadia.MustCompile("style"), "style blocks are removed by Gmail"},
	{"script", SeverityError, cascadia.MustCompile("script"), "scripts are removed by every email client"},
	{"stylesheet", SeverityError, cascadia.MustCompile("link"), "external stylesheets are not loaded"},
	{"embedded-content", SeverityError, cascadia.MustCompile("iframe, object, embed"), "embedded content is blocked"},
	{"form", SeverityWarning, cascadia.MustCompile("form"), "forms are disabled by several clients"},
	{"class-attribute", SeverityWarning, cascadia.MustCompile("[class]"), "class attributes have no effect without a stylesheet"},
	{"image-alt", SeverityWarning, cascadia.MustCompile("img:not([alt])"), "images need alt text for clients that block images"},
}

var styled = cascadia.MustCompile("[style]")

// Check parses htmlSrc and returns findings in document order.
func Check(htmlSrc string) []Finding {
	findings, _ := CheckReader(strings.NewReader(htmlSrc))
	return findings
}

// CheckReader is Check for a reader.
func CheckReader(r io.Reader) ([]Finding, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("lint: parse html: %w", err)
	}
	var findings []Finding
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, rule := range elementRules {
				if rule.selector.Match(n) {
					findings = append(findings, Finding{
						Rule:     rule.name,
						Severity: rule.severity,
						Element:  n.Data,
						Message:  rule.message,
					})
				}
			}
			if styled.Match(n) {
				findings = append(findings, checkStyle(n)...)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return findings, nil
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func checkStyle(n *html.Node) []Finding {
	var value string
	for _, a := range n.Attr {
		if a.Key == "style" {
			value = a.Val
			break
		}
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	decls, err := parser.ParseDeclarations(value)
	if err != nil {
		return []Finding{{
			Rule:     "invalid-style",
			Severity: SeverityError,
			Element:  n.Data,
			Message:  "style attribute does not parse: " + err.Error(),
		}}
	}
	var findings []Finding
	for _, d := range decls {
		prop := strings.ToLower(strings.TrimSpace(d.Property))
		val := strings.TrimSpace(d.Value)
		switch {
		case prop == "position" && val != "static", prop == "float" && val != "none":
			findings = append(findings, Finding{
				Rule:     "positioning",
				Severity: SeverityError,
				Element:  n.Data,
				Message:  prop + " is stripped by Gmail and Outlook",
			})
		case prop == "border-radius" && n.Data == "img":
			findings = append(findings, Finding{
				Rule:     "image-radius",
				Severity: SeverityWarning,
				Element:  n.Data,
				Message:  "border-radius on images is dropped; put it on a wrapping block",
			})
		case (prop == "color" || prop == "background-color") && strings.HasPrefix(val, "#"):
			findings = append(findings, Finding{
				Rule:     "hex-color",
				Severity: SeverityWarning,
				Element:  n.Data,
				Message:  prop + " " + val + " may be rewritten by dark-mode filters; prefer rgb()",
			})
		}
	}
	return findings
}

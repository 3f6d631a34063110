package mdmail

import (
	"regexp"
	"strconv"
	"strings"
)

type blockKind uint8

const (
	blockBlank blockKind = iota
	blockFence
	blockTableRow
	blockTableSeparator
	blockHeading
	blockQuote
	blockListItem
	blockRule
	blockImages
	blockParagraph
)

// block is one classified source line.
type block struct {
	kind    blockKind
	level   int
	ordered bool
	start   int
	text    string
	cells   []string
	images  []imageRef
}

type imageRef struct {
	alt string
	src string
}

// lineMatcher classifies a trimmed line. Matchers are tried in table order
// and the first match wins.
type lineMatcher struct {
	name  string
	match func(line string) (block, bool)
}

var lineMatchers = [...]lineMatcher{
	{"fence", matchFence},
	{"blank", matchBlank},
	{"table", matchTableRow},
	{"heading", matchHeading},
	{"blockquote", matchBlockquote},
	{"list", matchListItem},
	{"rule", matchRule},
	{"images", matchImageLine},
}

func classifyLine(line string) block {
	for _, m := range lineMatchers {
		if b, ok := m.match(line); ok {
			return b
		}
	}
	return block{kind: blockParagraph, text: line}
}

func matchFence(line string) (block, bool) {
	if !strings.HasPrefix(line, "```") {
		return block{}, false
	}
	lang := ""
	if fields := strings.Fields(strings.TrimLeft(line, "`")); len(fields) > 0 {
		lang = fields[0]
	}
	return block{kind: blockFence, text: lang}, true
}

func matchBlank(line string) (block, bool) {
	if line == "" || line == `\` || line == `\\` {
		return block{kind: blockBlank}, true
	}
	return block{}, false
}

func matchTableRow(line string) (block, bool) {
	if len(line) < 2 || line[0] != '|' || line[len(line)-1] != '|' {
		return block{}, false
	}
	parts := strings.Split(line[1:len(line)-1], "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	kind := blockTableRow
	if isTableSeparator(line) {
		kind = blockTableSeparator
	}
	return block{kind: kind, cells: cells}, true
}

func isTableSeparator(line string) bool {
	dash := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '-':
			dash = true
		case '|', ':', ' ', '\t':
		default:
			return false
		}
	}
	return dash
}

func matchHeading(line string) (block, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 3 || level+1 >= len(line) || line[level] != ' ' {
		return block{}, false
	}
	return block{kind: blockHeading, level: level, text: line[level+1:]}, true
}

func matchBlockquote(line string) (block, bool) {
	if !strings.HasPrefix(line, ">") {
		return block{}, false
	}
	rest := line[1:]
	rest = strings.TrimPrefix(rest, " ")
	return block{kind: blockQuote, text: rest}, true
}

func matchListItem(line string) (block, bool) {
	if len(line) > 2 && (line[0] == '-' || line[0] == '*' || line[0] == '+') && line[1] == ' ' {
		return block{kind: blockListItem, text: line[2:]}, true
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+2 >= len(line) || line[i] != '.' || line[i+1] != ' ' {
		return block{}, false
	}
	start, err := strconv.Atoi(line[:i])
	if err != nil {
		start = 1
	}
	return block{kind: blockListItem, ordered: true, start: start, text: line[i+2:]}, true
}

// matchRule accepts three or more of '-', '*' and '_' in any mix.
func matchRule(line string) (block, bool) {
	if len(line) < 3 {
		return block{}, false
	}
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '-', '*', '_':
		default:
			return block{}, false
		}
	}
	return block{kind: blockRule}, true
}

var (
	imageLineRe  = regexp.MustCompile(`^(?:!\[[^\]]*\]\([^)]+\)\s*)+$`)
	imageTokenRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

func matchImageLine(line string) (block, bool) {
	if !strings.HasPrefix(line, "![") || !imageLineRe.MatchString(line) {
		return block{}, false
	}
	tokens := imageTokenRe.FindAllStringSubmatch(line, -1)
	refs := make([]imageRef, 0, len(tokens))
	for _, t := range tokens {
		refs = append(refs, imageRef{alt: t[1], src: strings.TrimSpace(t[2])})
	}
	return block{kind: blockImages, images: refs}, true
}

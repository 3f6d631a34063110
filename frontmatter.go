package mdmail

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a markdown source with its front matter split off.
type Document struct {
	Body           string
	Subject        string
	Style          StyleConfig
	HasFrontMatter bool
}

type frontMatterMeta struct {
	Subject string `yaml:"subject"`
}

// ParseDocument splits a leading YAML front matter block from src. The block
// opens with a "---" (or ";;;" for JSON) line, must carry metadata on its
// second line and ends at the matching delimiter. Style keys in the block
// override base; a "subject" key is returned separately. Input that does not
// look like front matter, or whose metadata fails to parse, is returned
// untouched as Body.
func ParseDocument(src string, base StyleConfig) Document {
	doc := Document{Body: src, Style: base}
	meta, body, ok := splitFrontMatter(src)
	if !ok {
		return doc
	}
	style, err := ParseStyle([]byte(meta), base)
	if err != nil {
		return doc
	}
	var m frontMatterMeta
	if err := yaml.Unmarshal([]byte(meta), &m); err != nil {
		return doc
	}
	doc.Body = body
	doc.Subject = strings.TrimSpace(m.Subject)
	doc.Style = style
	doc.HasFrontMatter = true
	return doc
}

func splitFrontMatter(src string) (string, string, bool) {
	src = strings.TrimPrefix(src, "\ufeff")
	openLine, rest, ok := cutLine(src)
	if !ok {
		return "", "", false
	}
	delim, ok := parseOpeningFrontMatterDelimiter(openLine)
	if !ok {
		return "", "", false
	}
	secondLine, _, _ := cutLine(rest)
	if !frontMatterMetadataLikely(secondLine) {
		return "", "", false
	}
	var meta strings.Builder
	for rest != "" {
		var line string
		line, rest, _ = cutLine(rest)
		if strings.TrimSpace(line) == delim {
			return meta.String(), rest, true
		}
		meta.WriteString(line)
		meta.WriteByte('\n')
	}
	return "", "", false
}

func cutLine(s string) (string, string, bool) {
	if s == "" {
		return "", "", false
	}
	line, rest, found := strings.Cut(s, "\n")
	if !found {
		rest = ""
	}
	return strings.TrimSuffix(line, "\r"), rest, true
}

func parseOpeningFrontMatterDelimiter(line string) (string, bool) {
	switch trimmed := strings.TrimSpace(line); trimmed {
	case "---", ";;;":
		return trimmed, true
	default:
		return "", false
	}
}

func frontMatterMetadataLikely(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") {
		return true
	}
	return strings.Contains(trimmed, ":")
}

package mdmail

import "strings"

// attr is a pre-escaped HTML attribute.
type attr struct {
	name  string
	value string
}

// fragment is the HTML of one emitted block. Margins are kept apart from the
// rest of the style so assembly can collapse the last bottom margin.
type fragment struct {
	tag          string
	attrs        []attr
	marginTop    string
	marginBottom int
	style        string
	inner        string
	void         bool
}

func (f fragment) writeTo(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(f.tag)
	for _, a := range f.attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(a.value)
		b.WriteByte('"')
	}
	b.WriteString(` style="margin: `)
	top := f.marginTop
	if top == "" {
		top = "0"
	}
	b.WriteString(top)
	b.WriteString(" 0 ")
	b.WriteString(cssPx(f.marginBottom))
	b.WriteString(" 0;")
	if f.style != "" {
		b.WriteByte(' ')
		b.WriteString(f.style)
	}
	b.WriteString(`">`)
	if f.void {
		return
	}
	b.WriteString(f.inner)
	b.WriteString("</")
	b.WriteString(f.tag)
	b.WriteByte('>')
}

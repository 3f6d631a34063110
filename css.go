package mdmail

import (
	"math"
	"strconv"
	"strings"
)

// CSSColor converts #rrggbb (case-insensitive, leading # optional) to rgb(r,g,b).
// Anything else is returned unchanged.
func CSSColor(value string) string {
	rgb, ok := parseHexColor(value)
	if !ok {
		return value
	}
	return "rgb(" + strconv.Itoa(rgb[0]) + "," + strconv.Itoa(rgb[1]) + "," + strconv.Itoa(rgb[2]) + ")"
}

// cssColorAlpha returns value as rgba() with the given alpha. Non-hex input
// falls back to CSSColor so the declaration is still usable.
func cssColorAlpha(value string, alpha float64) string {
	rgb, ok := parseHexColor(value)
	if !ok {
		return CSSColor(value)
	}
	return "rgba(" + strconv.Itoa(rgb[0]) + "," + strconv.Itoa(rgb[1]) + "," + strconv.Itoa(rgb[2]) + "," + cssNumber(alpha) + ")"
}

func parseHexColor(value string) ([3]int, bool) {
	s := strings.TrimPrefix(value, "#")
	if len(s) != 6 {
		return [3]int{}, false
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		hi, ok := hexNibble(s[i*2])
		if !ok {
			return [3]int{}, false
		}
		lo, ok := hexNibble(s[i*2+1])
		if !ok {
			return [3]int{}, false
		}
		out[i] = hi<<4 | lo
	}
	return out, true
}

func hexNibble(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// EscapeFontFamily makes a font stack safe inside a double-quoted attribute.
func EscapeFontFamily(family string) string {
	return strings.ReplaceAll(family, `"`, "&quot;")
}

// cssNumber formats a float with at most three decimals and no trailing zeros.
func cssNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func cssPx(n int) string {
	if n == 0 {
		return "0"
	}
	return strconv.Itoa(n) + "px"
}

func scalePx(base int, factor float64) int {
	return int(math.Round(float64(base) * factor))
}

// declarations accumulates "prop: value;" pairs in insertion order.
type declarations struct {
	b strings.Builder
}

func (d *declarations) add(prop, value string) *declarations {
	if d.b.Len() > 0 {
		d.b.WriteByte(' ')
	}
	d.b.WriteString(prop)
	d.b.WriteString(": ")
	d.b.WriteString(value)
	d.b.WriteByte(';')
	return d
}

func (d *declarations) String() string {
	return d.b.String()
}

func styleDecls(pairs ...string) string {
	var d declarations
	for i := 0; i+1 < len(pairs); i += 2 {
		d.add(pairs[i], pairs[i+1])
	}
	return d.String()
}

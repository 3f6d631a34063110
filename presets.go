package mdmail

import (
	"sort"
	"strings"
)

func presetWithFont(family string) StyleConfig {
	s := DefaultStyle()
	s.FontFamily = family
	return s
}

var builtinPresets = map[string]StyleConfig{
	"default":         DefaultStyle(),
	"system":          presetWithFont(SystemFontStack),
	"georgia":         presetWithFont(`Georgia, "Times New Roman", Times, serif`),
	"arial":           presetWithFont("Arial, Helvetica, sans-serif"),
	"helvetica":       presetWithFont("Helvetica, Arial, sans-serif"),
	"times-new-roman": presetWithFont(`"Times New Roman", Times, Georgia, serif`),
	"verdana":         presetWithFont("Verdana, Geneva, sans-serif"),
	"newsletter": func() StyleConfig {
		s := presetWithFont(`Georgia, "Times New Roman", Times, serif`)
		s.FontSize = 18
		s.LineHeight = 1.6
		s.TextColor = "#1f2937"
		s.BackgroundColor = "#fafaf7"
		s.MaxWidth = 600
		s.ParagraphSpacing = 22
		s.HeadingWeight = 700
		s.HeadingTopMargin = 2
		return s
	}(),
	"dark": func() StyleConfig {
		s := DefaultStyle()
		s.TextColor = "#e5e7eb"
		s.BackgroundColor = "#111827"
		return s
	}(),
}

// AvailablePresets returns the names of built-in style presets.
func AvailablePresets() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetByName returns a built-in preset by name.
func PresetByName(name string) (StyleConfig, bool) {
	if name == "" {
		return builtinPresets["default"], true
	}
	normalized := strings.ToLower(strings.TrimSpace(name))
	style, ok := builtinPresets[normalized]
	return style, ok
}

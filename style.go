package mdmail

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SystemFontStack is the default font family.
const SystemFontStack = `-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif`

// StyleConfig holds the visual parameters of a rendered email.
//
// Values are passed through to CSS as given. Out-of-range numbers produce odd
// looking output but never an error.
type StyleConfig struct {
	FontFamily       string  `yaml:"fontFamily" json:"fontFamily"`
	FontSize         int     `yaml:"fontSize" json:"fontSize"`
	LineHeight       float64 `yaml:"lineHeight" json:"lineHeight"`
	TextColor        string  `yaml:"textColor" json:"textColor"`
	BackgroundColor  string  `yaml:"backgroundColor" json:"backgroundColor"`
	MaxWidth         int     `yaml:"maxWidth" json:"maxWidth"`
	ParagraphSpacing int     `yaml:"paragraphSpacing" json:"paragraphSpacing"`
	MarginTop        int     `yaml:"marginTop" json:"marginTop"`
	MarginSides      int     `yaml:"marginSides" json:"marginSides"`
	MarginBottom     int     `yaml:"marginBottom" json:"marginBottom"`
	HeadingWeight    int     `yaml:"headingWeight" json:"headingWeight"`
	BodyWeight       int     `yaml:"bodyWeight" json:"bodyWeight"`
	ImageRadius      int     `yaml:"imageRadius" json:"imageRadius"`
	HeadingTopMargin float64 `yaml:"headingTopMargin" json:"headingTopMargin"`
}

// DefaultStyle returns the baseline style.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		FontFamily:       SystemFontStack,
		FontSize:         16,
		LineHeight:       1.5,
		TextColor:        "#000000",
		BackgroundColor:  "#ffffff",
		MaxWidth:         560,
		ParagraphSpacing: 18,
		MarginTop:        20,
		MarginSides:      20,
		MarginBottom:     20,
		HeadingWeight:    600,
		BodyWeight:       400,
		ImageRadius:      8,
		HeadingTopMargin: 1.5,
	}
}

// DecodeStyle reads YAML from r and applies the keys it sets on top of base.
// Keys absent from the document keep the base value.
func DecodeStyle(r io.Reader, base StyleConfig) (StyleConfig, error) {
	out := base
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		if err == io.EOF {
			return base, nil
		}
		return base, fmt.Errorf("decode style: %w", err)
	}
	return out, nil
}

// ParseStyle is DecodeStyle for an in-memory document.
func ParseStyle(data []byte, base StyleConfig) (StyleConfig, error) {
	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("parse style: %w", err)
	}
	return out, nil
}

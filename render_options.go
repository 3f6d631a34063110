package mdmail

// DefaultFooter is the branding line appended below the content.
const DefaultFooter = "Sent with mdmail"

// RenderOption configures rendering behavior.
type RenderOption func(*renderConfig)

type renderConfig struct {
	document    bool
	footer      string
	highlight   string
	minify      bool
	frontMatter bool
}

func defaultRenderConfig() renderConfig {
	return renderConfig{footer: DefaultFooter}
}

// WithDocument wraps the output in a complete HTML document with a table
// layout for clients that ignore max-width on div elements.
func WithDocument(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.document = enabled
	}
}

// WithFooter replaces the branding footer text. An empty string removes the
// footer.
func WithFooter(text string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.footer = text
	}
}

// WithHighlight enables syntax highlighting of fenced code that names a
// language, using the given chroma style name.
func WithHighlight(style string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.highlight = style
	}
}

// WithMinify enables HTML minification of the final output.
func WithMinify(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.minify = enabled
	}
}

// WithFrontMatter strips a leading YAML front matter block and applies its
// keys as style overrides.
func WithFrontMatter(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.frontMatter = enabled
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/mdmail"
	"pkt.systems/mdmail/internal/config"
	"pkt.systems/mdmail/internal/deliver"
	"pkt.systems/mdmail/internal/logger"
	"pkt.systems/mdmail/internal/preview"
	"pkt.systems/mdmail/lint"
	"pkt.systems/version"
)

const (
	defaultTextWidth = 72
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 2
)

func init() {
	version.SetDefaultModule("pkt.systems/mdmail")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type styleFlags struct {
	fontFamily       string
	fontSize         int
	lineHeight       float64
	textColor        string
	backgroundColor  string
	maxWidth         int
	paragraphSpacing int
	marginTop        int
	marginSides      int
	marginBottom     int
	headingWeight    int
	bodyWeight       int
	imageRadius      int
	headingTopMargin float64
}

type cliOptions struct {
	preset      string
	styleFile   string
	listPresets bool
	showVersion bool
	document    bool
	footer      string
	noFooter    bool
	highlight   string
	minify      bool
	frontMatter bool
	plain       bool
	width       int
	outPath     string
	lintOnly    bool
	serve       bool
	addr        string
	sendTo      string
	subject     string
	logLevel    string
	logFormat   string
	style       styleFlags
}

func newFlagSet(cfg config.Config, opts *cliOptions, stderr io.Writer) *pflag.FlagSet {
	defaults := mdmail.DefaultStyle()
	flags := pflag.NewFlagSet("mdmail", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.preset, "preset", "p", cfg.Preset, "Style preset name")
	flags.StringVarP(&opts.styleFile, "style", "s", "", "YAML style file applied on top of the preset")
	flags.BoolVar(&opts.listPresets, "list-presets", false, "List available style presets")
	flags.BoolVarP(&opts.showVersion, "version", "v", false, "Print version and exit")
	flags.BoolVarP(&opts.document, "document", "d", false, "Wrap output in a complete HTML document")
	flags.StringVar(&opts.footer, "footer", mdmail.DefaultFooter, "Footer text")
	flags.BoolVar(&opts.noFooter, "no-footer", false, "Omit the footer")
	flags.StringVar(&opts.highlight, "highlight", cfg.Highlight, "Chroma style for fenced code with a language (empty disables)")
	flags.BoolVar(&opts.minify, "minify", false, "Minify the HTML output")
	flags.BoolVar(&opts.frontMatter, "front-matter", true, "Apply YAML front matter as style overrides")
	flags.BoolVar(&opts.plain, "plain", false, "Write the text/plain alternative instead of HTML")
	flags.IntVarP(&opts.width, "width", "w", 0, "Plain text wrap width (0 uses terminal width up to 72)")
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&opts.lintOnly, "lint", false, "Report email compatibility findings for the rendered output")
	flags.BoolVar(&opts.serve, "serve", false, "Serve a live preview of the input file")
	flags.StringVar(&opts.addr, "addr", cfg.Addr, "Preview listen address")
	flags.StringVar(&opts.sendTo, "send-to", "", "Send a test message to this address")
	flags.StringVar(&opts.subject, "subject", "", "Subject for --send-to (defaults to front matter subject)")
	flags.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	flags.StringVar(&opts.logFormat, "log-format", cfg.LogFormat, "Log format: text|json")

	flags.StringVar(&opts.style.fontFamily, "font-family", defaults.FontFamily, "CSS font stack")
	flags.IntVar(&opts.style.fontSize, "font-size", defaults.FontSize, "Base font size in px")
	flags.Float64Var(&opts.style.lineHeight, "line-height", defaults.LineHeight, "Unitless line height")
	flags.StringVar(&opts.style.textColor, "text-color", defaults.TextColor, "Text color (#rrggbb)")
	flags.StringVar(&opts.style.backgroundColor, "background-color", defaults.BackgroundColor, "Background color (#rrggbb)")
	flags.IntVar(&opts.style.maxWidth, "max-width", defaults.MaxWidth, "Content max width in px")
	flags.IntVar(&opts.style.paragraphSpacing, "paragraph-spacing", defaults.ParagraphSpacing, "Space below blocks in px")
	flags.IntVar(&opts.style.marginTop, "margin-top", defaults.MarginTop, "Top padding in px")
	flags.IntVar(&opts.style.marginSides, "margin-sides", defaults.MarginSides, "Side padding in px")
	flags.IntVar(&opts.style.marginBottom, "margin-bottom", defaults.MarginBottom, "Bottom padding in px")
	flags.IntVar(&opts.style.headingWeight, "heading-weight", defaults.HeadingWeight, "Heading font weight")
	flags.IntVar(&opts.style.bodyWeight, "body-weight", defaults.BodyWeight, "Body font weight")
	flags.IntVar(&opts.style.imageRadius, "image-radius", defaults.ImageRadius, "Image corner radius in px")
	flags.Float64Var(&opts.style.headingTopMargin, "heading-top-margin", defaults.HeadingTopMargin, "Space above headings in rem")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: mdmail [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nInputs are files, file:// or http(s) URLs. Without inputs Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	return flags
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFailure
	}
	var opts cliOptions
	flags := newFlagSet(cfg, &opts, stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return exitOK
	}
	if opts.listPresets {
		printPresets(stdout)
		return exitOK
	}

	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --log-level: %v\n", err)
		return exitUsage
	}
	log := logger.New(
		logger.WithOutput(stderr),
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(opts.logFormat)),
	)

	style, ok := mdmail.PresetByName(opts.preset)
	if !ok {
		fmt.Fprintf(stderr, "unknown preset %q\n\n", opts.preset)
		printPresets(stderr)
		return exitUsage
	}
	if opts.styleFile != "" {
		if style, err = loadStyleFile(opts.styleFile, style); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitFailure
		}
	}
	style = applyStyleFlags(flags, opts.style, style)
	renderOpts := buildRenderOptions(opts)

	inputs := flags.Args()
	if opts.serve {
		if len(inputs) > 1 {
			fmt.Fprintln(stderr, "--serve takes at most one input file")
			return exitUsage
		}
		path := ""
		if len(inputs) == 1 {
			path = normalizePath(inputs[0])
		}
		srv := preview.New(preview.Options{
			Path:              path,
			Style:             style,
			RenderOptions:     renderOpts,
			IgnoreFrontMatter: !opts.frontMatter,
			RenderRate:        cfg.RenderRate,
			RenderBurst:       cfg.RenderBurst,
			Debounce:          cfg.ReloadDebounce,
			Logger:            log,
		})
		if err := srv.ListenAndServe(ctx, opts.addr); err != nil {
			fmt.Fprintf(stderr, "serve: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	src, err := readInputs(ctx, inputs, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return exitFailure
	}
	doc := mdmail.Document{Body: src, Style: style}
	if opts.frontMatter {
		doc = mdmail.ParseDocument(src, style)
	}
	out := mdmail.RenderString(doc.Body, doc.Style, renderOpts...)

	if opts.lintOnly {
		findings := lint.Check(out)
		for _, f := range findings {
			fmt.Fprintln(stdout, f.String())
		}
		if lint.HasErrors(findings) {
			return exitFailure
		}
		return exitOK
	}

	if opts.sendTo != "" {
		subject := firstNonEmpty(opts.subject, doc.Subject, firstHeading(doc.Body))
		if subject == "" {
			fmt.Fprintln(stderr, "--send-to needs --subject, a front matter subject or a heading")
			return exitUsage
		}
		sender, err := deliver.New(cfg.Delivery)
		if err != nil {
			fmt.Fprintf(stderr, "deliver: %v\n", err)
			return exitFailure
		}
		msg := deliver.Message{
			To:      opts.sendTo,
			Subject: subject,
			HTML:    out,
			Text:    mdmail.PlainText(out, defaultTextWidth),
		}
		if err := sender.Send(ctx, msg); err != nil {
			fmt.Fprintf(stderr, "send: %v\n", err)
			return exitFailure
		}
		log.Info("message sent", "to", opts.sendTo, "subject", subject)
		return exitOK
	}

	writer, closeOut, err := resolveOutput(opts.outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "open output: %v\n", err)
		return exitFailure
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	if opts.plain {
		out = mdmail.PlainText(out, resolveWidth(opts.width, writer))
	} else if isTerminal(writer) {
		out += "\n"
	}
	if _, err := io.WriteString(writer, out); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func buildRenderOptions(opts cliOptions) []mdmail.RenderOption {
	footer := opts.footer
	if opts.noFooter {
		footer = ""
	}
	return []mdmail.RenderOption{
		mdmail.WithDocument(opts.document),
		mdmail.WithFooter(footer),
		mdmail.WithHighlight(opts.highlight),
		mdmail.WithMinify(opts.minify),
	}
}

// applyStyleFlags overrides only the style fields whose flags were set, so a
// preset or style file keeps its values otherwise.
func applyStyleFlags(flags *pflag.FlagSet, sf styleFlags, style mdmail.StyleConfig) mdmail.StyleConfig {
	set := func(name string) bool { return flags.Changed(name) }
	if set("font-family") {
		style.FontFamily = sf.fontFamily
	}
	if set("font-size") {
		style.FontSize = sf.fontSize
	}
	if set("line-height") {
		style.LineHeight = sf.lineHeight
	}
	if set("text-color") {
		style.TextColor = sf.textColor
	}
	if set("background-color") {
		style.BackgroundColor = sf.backgroundColor
	}
	if set("max-width") {
		style.MaxWidth = sf.maxWidth
	}
	if set("paragraph-spacing") {
		style.ParagraphSpacing = sf.paragraphSpacing
	}
	if set("margin-top") {
		style.MarginTop = sf.marginTop
	}
	if set("margin-sides") {
		style.MarginSides = sf.marginSides
	}
	if set("margin-bottom") {
		style.MarginBottom = sf.marginBottom
	}
	if set("heading-weight") {
		style.HeadingWeight = sf.headingWeight
	}
	if set("body-weight") {
		style.BodyWeight = sf.bodyWeight
	}
	if set("image-radius") {
		style.ImageRadius = sf.imageRadius
	}
	if set("heading-top-margin") {
		style.HeadingTopMargin = sf.headingTopMargin
	}
	return style
}

func printPresets(w io.Writer) {
	for _, name := range mdmail.AvailablePresets() {
		fmt.Fprintln(w, name)
	}
}

var headingLineRe = regexp.MustCompile(`(?m)^#{1,3} +(.+?)\s*$`)

func firstHeading(src string) string {
	m := headingLineRe.FindStringSubmatch(src)
	if m == nil {
		return ""
	}
	return strings.NewReplacer("**", "", "__", "").Replace(m[1])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func resolveWidth(width int, w io.Writer) int {
	if width > 0 {
		return width
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 && cols < defaultTextWidth {
			return cols
		}
	}
	return defaultTextWidth
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

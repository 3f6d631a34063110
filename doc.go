// Package mdmail renders Markdown to email-safe HTML.
//
// The renderer is a single-pass, line-oriented transform of a small Markdown
// dialect into flat HTML where every style is an inline style attribute. Email
// clients such as Gmail strip <style> blocks, stylesheet links and some CSS on
// some tags, so the output never relies on any of them.
//
// Core properties:
//   - Deterministic: RenderString is a pure function of source, style and options
//   - Never fails: malformed Markdown degrades to literal text
//   - Colors are emitted as rgb() and font families are attribute-safe
//   - The last content block carries no bottom margin
//
// Example:
//
//	out := mdmail.RenderString("# Hello\n\nMarkdown in, *email* out.\n", mdmail.DefaultStyle())
//	fmt.Println(out)
//
// Render and HTTPRender read Markdown from an io.Reader or a URL, and
// PlainText derives the text/plain alternative of a rendered message. Options
// such as WithDocument, WithHighlight and WithMinify add the full-document
// wrapper, syntax highlighting and minification.
package mdmail

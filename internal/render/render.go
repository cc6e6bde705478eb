// Package render formats store state for the terminal.
package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
)

// StylePlain disables markdown rendering.
const StylePlain = "plain"

// Options configures a Renderer.
type Options struct {
	// Style is a glamour standard style ("auto", "dark", "light", "notty",
	// "ascii", ...) or StylePlain.
	Style    string
	WordWrap int
}

// Renderer writes sessions, reports, dashboards and chat messages to w.
type Renderer struct {
	w  io.Writer
	md *glamour.TermRenderer
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts Options) (*Renderer, error) {
	r := &Renderer{w: w}
	if opts.Style == StylePlain {
		return r, nil
	}

	style := opts.Style
	if style == "" {
		style = "auto"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(opts.WordWrap),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Markdown renders md for the terminal. If rendering fails, or the renderer
// is plain, md is returned unchanged.
func (r *Renderer) Markdown(md string) string {
	if r.md == nil {
		return md
	}
	out, err := r.md.Render(md)
	if err != nil {
		return md
	}
	return out
}

var htmlTag = regexp.MustCompile(`(?i)<(p|div|br|ul|ol|li|h[1-6]|strong|em|b|i|table|tr|td|th|a|span|code|pre|blockquote)(\s[^>]*)?/?>`)

// LooksLikeHTML reports whether s contains common HTML markup.
func LooksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// ToMarkdown converts bot content to markdown. Content that does not look
// like HTML is returned as is.
func ToMarkdown(content string) string {
	if !LooksLikeHTML(content) {
		return content
	}
	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(md)
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) println(s string) {
	_, _ = fmt.Fprintln(r.w, s)
}

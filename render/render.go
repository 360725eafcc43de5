// Package render turns accumulated model output into HTML for display.
// Rendering is independent of streaming: every function here takes the
// complete text so far and returns a full document fragment.
package render

import (
	"html"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// Renderer converts cumulative model text to HTML.
type Renderer interface {
	Render(text string) string
}

// Func adapts a plain function to Renderer.
type Func func(text string) string

// Render calls f(text).
func (f Func) Render(text string) string {
	return f(text)
}

// Modes accepted by New.
const (
	ModeMarkdown = "markdown"
	ModeFallback = "fallback"
	ModePlain    = "plain"
)

// New returns the renderer for mode; unknown modes get Markdown.
func New(mode string) Renderer {
	switch mode {
	case ModeFallback:
		return Func(Fallback)
	case ModePlain:
		return Func(Plain)
	default:
		return NewMarkdown()
	}
}

// Markdown renders CommonMark-ish Markdown with blackfriday. Raw HTML in the
// model output is dropped.
type Markdown struct {
	params     blackfriday.HTMLRendererParameters
	extensions blackfriday.Extensions
}

// NewMarkdown returns a Markdown renderer with the common extensions.
func NewMarkdown() *Markdown {
	return &Markdown{
		params: blackfriday.HTMLRendererParameters{
			Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML,
		},
		extensions: blackfriday.CommonExtensions,
	}
}

// Render converts text. If the Markdown engine fails, the pure Fallback
// output is returned instead.
func (m *Markdown) Render(text string) (out string) {
	defer func() {
		if recover() != nil {
			out = Fallback(text)
		}
	}()

	renderer := blackfriday.NewHTMLRenderer(m.params)
	return string(blackfriday.Run([]byte(text),
		blackfriday.WithRenderer(renderer),
		blackfriday.WithExtensions(m.extensions),
	))
}

// Plain escapes text and turns newlines into <br>.
func Plain(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

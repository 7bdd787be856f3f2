// Package glamour renders markdown for terminal preview.
package glamour

import (
	"github.com/charmbracelet/glamour"
	"github.com/fwojciec/poesaver"
	"golang.org/x/term"
)

// Ensure Previewer implements poesaver.Previewer at compile time.
var _ poesaver.Previewer = (*Previewer)(nil)

// DefaultWidth is used when the terminal size cannot be determined.
const DefaultWidth = 80

// Previewer renders markdown with terminal styling.
type Previewer struct {
	width int
	style string
}

// Option configures a Previewer.
type Option func(*Previewer)

// WithWidth sets the word wrap width.
func WithWidth(width int) Option {
	return func(p *Previewer) {
		p.width = width
	}
}

// WithStyle selects a standard glamour style ("dark", "light", "notty",
// "ascii"). The default detects the terminal background.
func WithStyle(style string) Option {
	return func(p *Previewer) {
		p.style = style
	}
}

// WithTerminal wraps at the width of the terminal open on fd. A non-terminal
// fd leaves DefaultWidth.
func WithTerminal(fd int) Option {
	return func(p *Previewer) {
		p.width = TerminalWidth(fd)
	}
}

// NewPreviewer creates a new Previewer wrapping at DefaultWidth.
func NewPreviewer(opts ...Option) *Previewer {
	p := &Previewer{width: DefaultWidth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview returns markdown rendered for the terminal.
func (p *Previewer) Preview(markdown string) (string, error) {
	style := glamour.WithAutoStyle()
	if p.style != "" {
		style = glamour.WithStandardStyle(p.style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(p.width))
	if err != nil {
		return "", poesaver.Errorf(poesaver.EINTERNAL, "creating terminal renderer: %v", err)
	}
	return r.Render(markdown)
}

// TerminalWidth returns the width of the terminal open on fd, or
// DefaultWidth when fd is not a terminal.
func TerminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

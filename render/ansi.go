package render

import (
	"fmt"
	"io"

	"github.com/lixenwraith/flowgrid/constant"
	"github.com/lixenwraith/flowgrid/engine"
	"github.com/lixenwraith/flowgrid/terminal"
)

// Box drawing runes for the frame
const (
	boxTopLeft     = '╔'
	boxTopRight    = '╗'
	boxBottomLeft  = '╚'
	boxBottomRight = '╝'
	boxHorizontal  = '═'
	boxVertical    = '║'
)

// ANSIRenderer redraws the whole frame each tick as raw escape sequences
// Grid (x, y) lands on row y+2, column x+2, just inside the border
type ANSIRenderer struct {
	out *terminal.Writer
	cfg Config
	// Paused, if set, marks the status line
	Paused func() bool
}

// NewANSIRenderer creates a renderer writing to w
func NewANSIRenderer(w io.Writer, mode terminal.ColorMode, cfg Config) *ANSIRenderer {
	return &ANSIRenderer{
		out: terminal.NewWriter(w, mode),
		cfg: cfg,
	}
}

// Render draws border, visible in-viewport entities and the optional status line
func (r *ANSIRenderer) Render(e *engine.Entities, tick uint64) error {
	w := r.out
	width, height := r.cfg.Viewport.Width, r.cfg.Viewport.Height
	m := constant.ViewportMargin

	w.Clear()
	w.Foreground(BorderColor)
	r.horizontal(1, boxTopLeft, boxTopRight)
	for row := m; row < height+m; row++ {
		w.MoveTo(row, 1)
		w.Rune(boxVertical)
		w.MoveTo(row, width+m)
		w.Rune(boxVertical)
	}

	for _, s := range e.Sprites() {
		if !r.cfg.Viewport.Contains(s.Position) {
			continue
		}
		w.MoveTo(s.Position.Y+m, s.Position.X+m)
		w.Foreground(BandColor(s.Band))
		w.Rune(r.cfg.Glyphs.Glyph(s))
	}

	w.Foreground(BorderColor)
	r.horizontal(height+m, boxBottomLeft, boxBottomRight)
	w.ResetStyle()

	if r.cfg.Status {
		w.MoveTo(height+m+1, 1)
		w.String(statusLine(e, tick, r.Paused != nil && r.Paused()))
	}
	w.String("\n")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// horizontal draws a full border row with its corners
func (r *ANSIRenderer) horizontal(row int, left, right rune) {
	w := r.out
	w.MoveTo(row, 1)
	w.Rune(left)
	for x := 0; x < r.cfg.Viewport.Width; x++ {
		w.Rune(boxHorizontal)
	}
	w.Rune(right)
}

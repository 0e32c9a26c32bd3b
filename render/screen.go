package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/flowgrid/engine"
)

// ScreenRenderer draws the frame onto a tcell screen
// Screen cells are 0-based, so grid (x, y) lands on cell (x+1, y+1)
type ScreenRenderer struct {
	screen tcell.Screen
	cfg    Config
	// Paused, if set, marks the status line
	Paused func() bool
}

// NewScreenRenderer creates a renderer over an initialized screen
func NewScreenRenderer(screen tcell.Screen, cfg Config) *ScreenRenderer {
	return &ScreenRenderer{screen: screen, cfg: cfg}
}

// Render draws border, visible in-viewport entities and the optional status line
func (r *ScreenRenderer) Render(e *engine.Entities, tick uint64) error {
	s := r.screen
	width, height := r.cfg.Viewport.Width, r.cfg.Viewport.Height
	border := tcell.StyleDefault.Foreground(tcellColor(BorderColor))

	s.Clear()

	s.SetContent(0, 0, boxTopLeft, nil, border)
	s.SetContent(width+1, 0, boxTopRight, nil, border)
	s.SetContent(0, height+1, boxBottomLeft, nil, border)
	s.SetContent(width+1, height+1, boxBottomRight, nil, border)
	for x := 1; x <= width; x++ {
		s.SetContent(x, 0, boxHorizontal, nil, border)
		s.SetContent(x, height+1, boxHorizontal, nil, border)
	}
	for y := 1; y <= height; y++ {
		s.SetContent(0, y, boxVertical, nil, border)
		s.SetContent(width+1, y, boxVertical, nil, border)
	}

	for _, sp := range e.Sprites() {
		if !r.cfg.Viewport.Contains(sp.Position) {
			continue
		}
		style := tcell.StyleDefault.Foreground(tcellColor(BandColor(sp.Band)))
		s.SetContent(sp.Position.X+1, sp.Position.Y+1, r.cfg.Glyphs.Glyph(sp), nil, style)
	}

	if r.cfg.Status {
		line := statusLine(e, tick, r.Paused != nil && r.Paused())
		x := 0
		for _, ch := range line {
			s.SetContent(x, height+2, ch, nil, tcell.StyleDefault)
			x++
		}
	}

	s.Show()
	return nil
}

// Controls are the actions keyboard input can trigger
type Controls struct {
	Quit        func()
	TogglePause func() bool
}

// HandleEvent applies one screen event, returning false once the input loop should end
func HandleEvent(ev tcell.Event, c Controls) bool {
	switch ev := ev.(type) {
	case nil:
		return false
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC,
			ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			if c.Quit != nil {
				c.Quit()
			}
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
			if c.TogglePause != nil {
				c.TogglePause()
			}
		}
	case *tcell.EventResize:
		// Next frame redraws everything
	}
	return true
}

// PollInput blocks reading screen events until quit or the screen is finalized
func PollInput(screen tcell.Screen, c Controls) {
	for HandleEvent(screen.PollEvent(), c) {
	}
}

package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/flowgrid/engine"
	"github.com/lixenwraith/flowgrid/resource"
	"github.com/lixenwraith/flowgrid/terminal"
)

// Band colours, one per magnitude band
var bandColors = [...]terminal.RGB{
	resource.BandLow:  {R: 70, G: 110, B: 255},
	resource.BandMid:  {R: 60, G: 200, B: 90},
	resource.BandHigh: {R: 240, G: 200, B: 40},
	resource.BandFull: {R: 240, G: 70, B: 60},
}

var bandGlyphs = [...]rune{
	resource.BandLow:  '.',
	resource.BandMid:  'o',
	resource.BandHigh: 'O',
	resource.BandFull: '@',
}

// BorderColor is the frame colour
var BorderColor = terminal.RGB{R: 150, G: 150, B: 150}

// BandColor returns the glyph colour for a band
func BandColor(b resource.Band) terminal.RGB {
	if int(b) < len(bandColors) {
		return bandColors[b]
	}
	return BorderColor
}

// tcellColor converts to a tcell RGB colour, tcell downgrades for the terminal
func tcellColor(c terminal.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// GlyphMode selects how an entity is drawn
type GlyphMode uint8

const (
	// GlyphBand draws one glyph per magnitude band
	GlyphBand GlyphMode = iota
	// GlyphIndex draws the entity index as a character counting up from '0'
	GlyphIndex
)

// printable run starting at '0' used by GlyphIndex
const indexGlyphSpan = '~' - '0' + 1

// ParseGlyphMode resolves a flag value
func ParseGlyphMode(s string) (GlyphMode, error) {
	switch strings.ToLower(s) {
	case "", "band":
		return GlyphBand, nil
	case "index":
		return GlyphIndex, nil
	}
	return GlyphBand, fmt.Errorf("unknown glyph mode %q (want band or index)", s)
}

// Glyph returns the rune drawn for s
func (m GlyphMode) Glyph(s engine.Sprite) rune {
	if m == GlyphIndex {
		return '0' + rune(int(s.Index)%indexGlyphSpan)
	}
	if int(s.Band) < len(bandGlyphs) {
		return bandGlyphs[s.Band]
	}
	return '?'
}

// Viewport is the drawable interior of the bordered frame, in grid cells
type Viewport struct {
	Width, Height int
}

// Contains reports whether p falls inside the viewport
func (v Viewport) Contains(p engine.Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < v.Width && p.Y < v.Height
}

// Outer returns the frame size including the border
func (v Viewport) Outer() (width, height int) {
	return v.Width + 2, v.Height + 2
}

// Config is shared by both renderers
type Config struct {
	Viewport Viewport
	Glyphs   GlyphMode
	// Status draws a summary line under the frame
	Status bool
}

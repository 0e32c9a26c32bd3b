package terminal

import (
	"bufio"
	"io"
)

// Pre-allocated ANSI sequence fragments
var (
	csi         = []byte("\x1b[")
	csiSGR0     = []byte("\x1b[0m")
	csiClear    = []byte("\x1b[2J")
	csiRIS      = []byte("\x1bc") // Reset to Initial State (emergency)
	csiFg256    = []byte("\x1b[38;5;")
	csiFgRGB    = []byte("\x1b[38;2;")
	csiCursorOn = []byte("\x1b[?25h")
	csiCursorOf = []byte("\x1b[?25l")
	csiAltExit  = []byte("\x1b[?1049l")
	csiWrapOn   = []byte("\x1b[?7h")
)

// Writer emits positioned, coloured glyphs as raw ANSI sequences
// Output is buffered until Flush; write errors surface from Flush
type Writer struct {
	w    *bufio.Writer
	mode ColorMode

	lastFg    RGB
	lastValid bool
}

// NewWriter wraps w for the given colour capability
func NewWriter(w io.Writer, mode ColorMode) *Writer {
	return &Writer{
		w:    bufio.NewWriterSize(w, 16384),
		mode: mode,
	}
}

// Mode returns the colour mode sequences are emitted for
func (w *Writer) Mode() ColorMode {
	return w.mode
}

// Clear erases the whole screen
func (w *Writer) Clear() {
	w.w.Write(csiClear)
}

// HideCursor and ShowCursor toggle the text cursor
func (w *Writer) HideCursor() { w.w.Write(csiCursorOf) }
func (w *Writer) ShowCursor() { w.w.Write(csiCursorOn) }

// MoveTo positions the cursor, row and col are 1-based as in CUP
func (w *Writer) MoveTo(row, col int) {
	w.w.Write(csi)
	writeInt(w.w, row)
	w.w.WriteByte(';')
	writeInt(w.w, col)
	w.w.WriteByte('H')
}

// Foreground sets the glyph colour, skipped when unchanged since the last reset
func (w *Writer) Foreground(c RGB) {
	if w.lastValid && c == w.lastFg {
		return
	}
	if w.mode == ColorModeTrueColor {
		w.w.Write(csiFgRGB)
		writeInt(w.w, int(c.R))
		w.w.WriteByte(';')
		writeInt(w.w, int(c.G))
		w.w.WriteByte(';')
		writeInt(w.w, int(c.B))
	} else {
		w.w.Write(csiFg256)
		writeInt(w.w, int(RGBTo256(c)))
	}
	w.w.WriteByte('m')
	w.lastFg = c
	w.lastValid = true
}

// ResetStyle emits SGR 0
func (w *Writer) ResetStyle() {
	w.w.Write(csiSGR0)
	w.lastValid = false
}

// Rune writes a single glyph at the cursor
func (w *Writer) Rune(r rune) {
	if r < 0x80 {
		w.w.WriteByte(byte(r))
		return
	}
	w.w.WriteRune(r)
}

// String writes text at the cursor
func (w *Writer) String(s string) {
	w.w.WriteString(s)
}

// Flush writes buffered output, returning the first write error
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// writeInt writes a non-negative integer without allocation
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		w.WriteByte(byte(n) + '0')
		return
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	w.Write(buf[i:])
}

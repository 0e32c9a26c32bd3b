package terminal

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"golang.org/x/term"
)

// Info describes the output stream the ANSI renderer writes to
type Info struct {
	IsTTY         bool
	Width, Height int // zero when unknown
}

// Probe inspects f; size is only queried for terminals
func Probe(f *os.File) Info {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return Info{}
	}
	info := Info{IsTTY: true}
	if w, h, err := term.GetSize(fd); err == nil {
		info.Width, info.Height = w, h
	}
	return info
}

// Fits reports whether a frame of the given outer size fits the probed terminal
// Unknown sizes are assumed to fit
func (i Info) Fits(width, height int) bool {
	if i.Width == 0 || i.Height == 0 {
		return true
	}
	return width <= i.Width && height <= i.Height
}

// EmergencyReset restores terminal state after a crash: cursor, screen, attributes, termios
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorOn)
	w.Write(csiAltExit)
	w.Write(csiSGR0)
	w.Write(csiWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios; best-effort, errors ignored
	resetTerminalMode()
}

// HandleCrash resets the terminal, prints the panic with its stack and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	EmergencyReset(os.Stdout)
	os.Stdout.Sync()

	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mFLOWGRID CRASHED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs fn in a new goroutine with panic recovery
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

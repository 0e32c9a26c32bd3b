// Package terminal provides the terminal plumbing around the simulation: buffered ANSI output,
// colour capability detection, tty probing, shutdown signals and crash-time restoration.
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal

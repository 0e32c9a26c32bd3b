package terminal

import (
	"os"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// ParseColorMode resolves a flag value; "auto" and unknown values detect from the environment
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "256":
		return ColorMode256
	case "truecolor", "true", "24bit":
		return ColorModeTrueColor
	}
	return DetectColorMode()
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Color cube levels for the 6x6x6 palette (indices 16-231)
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeLevel maps a channel to the nearest cube index 0-5
func cubeLevel(v uint8) uint8 {
	best := 0
	bestDist := abs(int(v) - int(cubeValues[0]))
	for j := 1; j < len(cubeValues); j++ {
		if d := abs(int(v) - int(cubeValues[j])); d < bestDist {
			bestDist = d
			best = j
		}
	}
	return uint8(best)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RGBTo256 converts RGB to the nearest xterm-256 palette index
// Near-gray colours are matched against the 24-step grayscale ramp as well as the cube
func RGBTo256(c RGB) uint8 {
	r, g, b := cubeLevel(c.R), cubeLevel(c.G), cubeLevel(c.B)
	cubeIdx := 16 + 36*r + 6*g + b
	cubeDist := abs(int(c.R)-int(cubeValues[r])) +
		abs(int(c.G)-int(cubeValues[g])) +
		abs(int(c.B)-int(cubeValues[b]))

	gray := (int(c.R) + int(c.G) + int(c.B)) / 3
	if max(abs(int(c.R)-gray), abs(int(c.G)-gray), abs(int(c.B)-gray)) >= 10 {
		return cubeIdx
	}
	if gray < 4 {
		return 16
	}
	if gray > 243 {
		return 231
	}

	grayIdx := min(232+(gray-8)/10, 255)
	level := 8 + (grayIdx-232)*10
	grayDist := abs(int(c.R)-level) + abs(int(c.G)-level) + abs(int(c.B)-level)
	if grayDist < cubeDist {
		return uint8(grayIdx)
	}
	return cubeIdx
}

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	for _, env := range []string{"KITTY_WINDOW_ID", "KONSOLE_VERSION", "ITERM_SESSION_ID", "ALACRITTY_WINDOW_ID", "WEZTERM_PANE"} {
		if os.Getenv(env) != "" {
			return ColorModeTrueColor
		}
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit") ||
		strings.Contains(term, "direct") {
		return ColorModeTrueColor
	}

	return ColorMode256
}

package constant

import "time"

// Viewport
const (
	// ViewportWidth and ViewportHeight are the interior cells of the bordered frame
	ViewportWidth  = 64
	ViewportHeight = 32

	// ViewportMargin offsets grid coordinates into the frame (1-based rows/cols plus the border)
	ViewportMargin = 2
)

// Tick pacing
const (
	TicksPerSecond = 4
	TickInterval   = time.Second / TicksPerSecond

	// MaxTicksPerSecond bounds configured rates so the interval stays at or above 1ms
	MaxTicksPerSecond = 1000

	// MinPausePoll floors the paused poll interval
	MinPausePoll = time.Millisecond
)

// EntityCapacityHint pre-sizes the entity arena, not a hard cap
const EntityCapacityHint = 1024

// Magnitude band edges, lower bound inclusive
const (
	BandMidFloor  = 64
	BandHighFloor = 128
	BandFullFloor = 192
)

// Logging
const (
	LogDir      = "logs"
	LogFileName = "flowgrid.log"
	// LogMaxSize triggers rotation of an existing log file at startup
	LogMaxSize = 10 << 20
)

package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// Cue identifies a sound played in response to a tick
type Cue int

const (
	CueSaturate Cue = iota // an entity filled up
	CueDrain               // an entity ran dry
)

func (c Cue) String() string {
	switch c {
	case CueSaturate:
		return "saturate"
	case CueDrain:
		return "drain"
	}
	return fmt.Sprintf("cue(%d)", int(c))
}

type note struct {
	freq     float64
	duration time.Duration
}

// Rising triad for saturation, falling low pair for drain
var cueNotes = map[Cue][]note{
	CueSaturate: {{523.25, 50 * time.Millisecond}, {659.25, 50 * time.Millisecond}, {783.99, 80 * time.Millisecond}},
	CueDrain:    {{196.00, 70 * time.Millisecond}, {146.83, 110 * time.Millisecond}},
}

const (
	fadeDuration = 8 * time.Millisecond
	cueVolume    = 0.35
)

// Duration returns how long the cue plays
func (c Cue) Duration() time.Duration {
	var d time.Duration
	for _, n := range cueNotes[c] {
		d += n.duration
	}
	return d
}

// Tone builds the cue's streamer: sine notes cut to length, faded at the edges, played in sequence
func Tone(c Cue, rate beep.SampleRate) (beep.Streamer, error) {
	notes, ok := cueNotes[c]
	if !ok {
		return nil, fmt.Errorf("unknown cue %s", c)
	}

	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		sine, err := generators.SineTone(rate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("%s tone %.2f Hz: %w", c, n.freq, err)
		}
		total := rate.N(n.duration)
		parts = append(parts, newFade(beep.Take(total, sine), total, rate.N(fadeDuration)))
	}

	return &effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: math.Log2(cueVolume)}, nil
}

// fade ramps a fixed-length stream in and out linearly to avoid clicks at note boundaries
type fade struct {
	streamer beep.Streamer
	position int
	total    int
	ramp     int
}

func newFade(s beep.Streamer, total, ramp int) *fade {
	if ramp*2 > total {
		ramp = total / 2
	}
	return &fade{streamer: s, total: total, ramp: ramp}
}

func (f *fade) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		if f.ramp > 0 {
			switch {
			case f.position < f.ramp:
				gain = float64(f.position) / float64(f.ramp)
			case f.position >= f.total-f.ramp:
				gain = float64(f.total-f.position) / float64(f.ramp)
			}
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		f.position++
	}
	return n, ok
}

func (f *fade) Err() error { return f.streamer.Err() }

// Package audio plays short tones when a tick saturates or drains entities.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/lixenwraith/flowgrid/engine"
)

const sampleRate = beep.SampleRate(44100)

// Cues turns tick reports into sounds
// Without a successful Init every method is a no-op, so audio failures never stop a run
type Cues struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	mixer   *beep.Mixer
	enabled bool
	play    func(beep.Streamer)
	played  map[Cue]int
}

// NewCues creates a disabled cue player
func NewCues() *Cues {
	return &Cues{
		rate:   sampleRate,
		mixer:  &beep.Mixer{},
		played: make(map[Cue]int),
	}
}

// Init opens the speaker; on error the cues stay disabled
func (c *Cues) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return nil
	}
	if err := speaker.Init(c.rate, c.rate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.play = func(s beep.Streamer) {
		speaker.Lock()
		c.mixer.Add(s)
		speaker.Unlock()
	}
	c.enabled = true
	return nil
}

// Enabled reports whether sounds are being played
func (c *Cues) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Observe plays at most one saturation and one drain cue per tick
func (c *Cues) Observe(r engine.TickReport) {
	if len(r.Saturated) > 0 {
		c.Play(CueSaturate)
	}
	if len(r.Drained) > 0 {
		c.Play(CueDrain)
	}
}

// Play starts cue, mixing it over anything already sounding
func (c *Cues) Play(cue Cue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	s, err := Tone(cue, c.rate)
	if err != nil {
		return
	}
	c.play(s)
	c.played[cue]++
}

// Played returns how many times cue has been started
func (c *Cues) Played(cue Cue) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played[cue]
}

// Close silences pending cues and releases the speaker
func (c *Cues) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	speaker.Clear()
	speaker.Close()
	c.enabled = false
}

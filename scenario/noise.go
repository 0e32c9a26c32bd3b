package scenario

import (
	"fmt"
	"math"

	"github.com/lixenwraith/flowgrid/constant"
	"github.com/lixenwraith/flowgrid/engine"
	"github.com/lixenwraith/flowgrid/resource"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseConfig shapes a procedural field
type NoiseConfig struct {
	Seed   int64
	Width  int
	Height int
	// Threshold in [0, 1): a cell holds an entity when its noise value exceeds it
	Threshold float64
	// Scale is the sampling frequency; smaller values give larger blobs
	Scale float64
	// MaxWants bounds the per-tick pull, each entity wants 1..MaxWants
	MaxWants uint8
}

// DefaultNoiseConfig returns a field sized for the default viewport
func DefaultNoiseConfig(seed int64) NoiseConfig {
	return NoiseConfig{
		Seed:      seed,
		Width:     32,
		Height:    16,
		Threshold: 0.55,
		Scale:     0.18,
		MaxWants:  8,
	}
}

func (c NoiseConfig) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: noise field %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if c.Scale <= 0 || math.IsNaN(c.Scale) {
		return fmt.Errorf("%w: noise scale %g", ErrInvalid, c.Scale)
	}
	if c.MaxWants == 0 {
		return fmt.Errorf("%w: noise max wants is zero", ErrInvalid)
	}
	return nil
}

// Noise inserts entities into e where a simplex field exceeds the threshold, row by row
// Holdings follow the field value and wants come from an independent field of the next seed,
// so the same config always produces the same graph. Returns the number inserted.
func Noise(e *engine.Entities, cfg NoiseConfig) (int, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	field := opensimplex.NewNormalized(cfg.Seed)
	demand := opensimplex.NewNormalized(cfg.Seed + 1)
	k := e.Kind()

	n := 0
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x)*cfg.Scale, float64(y)*cfg.Scale
			v := field.Eval2(fx, fy)
			if v <= cfg.Threshold {
				continue
			}

			has := uint8(math.Round(clamp01(v) * resource.Max))
			wants := 1 + uint8(math.Floor(clamp01(demand.Eval2(fx, fy))*float64(cfg.MaxWants-1)+0.5))

			e.MustInsert(resource.New(k, wants), resource.New(k, has), engine.Position{X: x, Y: y}, true)
			n++
		}
	}
	return n, nil
}

// NewNoise returns a noise scenario on a fresh graph of kind k
func NewNoise(k resource.Kind, cfg NoiseConfig) (*Scenario, error) {
	e := engine.NewEntities(k, min(cfg.Width*cfg.Height, constant.EntityCapacityHint))
	if _, err := Noise(e, cfg); err != nil {
		return nil, err
	}
	return &Scenario{
		Name:     fmt.Sprintf("noise-%d", cfg.Seed),
		World:    World{Width: cfg.Width, Height: cfg.Height},
		Entities: e,
	}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Package scenario seeds flow graphs: the built-in chain, TOML scenario files and procedural
// noise fields.
package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/flowgrid/constant"
	"github.com/lixenwraith/flowgrid/engine"
	"github.com/lixenwraith/flowgrid/resource"
	"github.com/lixenwraith/flowgrid/toml"
)

// ErrInvalid is wrapped by every scenario validation failure
var ErrInvalid = errors.New("invalid scenario")

// World carries the optional display and pacing settings of a scenario
// Zero fields mean "use the default"
type World struct {
	Width          int
	Height         int
	TicksPerSecond float64
}

// Scenario is a seeded graph with the settings it was loaded with
type Scenario struct {
	Name     string
	World    World
	Entities *engine.Entities
	// Labels holds the names given to entities in a scenario file, if any
	Labels map[engine.EntityIndex]string
}

type chainEntity struct {
	pos        engine.Position
	wants, has uint8
}

var chain = []chainEntity{
	{engine.Position{X: 1, Y: 1}, 1, 100},
	{engine.Position{X: 1, Y: 2}, 1, 255},
	{engine.Position{X: 2, Y: 2}, 2, 64},
	{engine.Position{X: 3, Y: 2}, 2, 192},
	{engine.Position{X: 3, Y: 3}, 5, 0},
}

// Chain inserts the reference five-entity chain into e, in the graph's kind
// Inserted in order into an empty graph it produces 0 -> 1 -> 2 -> 3 -> 4
func Chain(e *engine.Entities) {
	k := e.Kind()
	for _, c := range chain {
		e.MustInsert(resource.New(k, c.wants), resource.New(k, c.has), c.pos, true)
	}
}

// NewChain returns the chain scenario on a fresh graph of kind k
func NewChain(k resource.Kind) *Scenario {
	e := engine.NewEntities(k, len(chain))
	Chain(e)
	return &Scenario{Name: "chain", Entities: e}
}

type fileWorld struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	TicksPerSecond float64 `toml:"ticks_per_second"`
	Kind           string  `toml:"kind"`
}

type fileEntity struct {
	Name     string `toml:"name"`
	Position [2]int `toml:"position"`
	Wants    uint8  `toml:"wants"`
	Has      uint8  `toml:"has"`
	Visible  *bool  `toml:"visible"`
}

type file struct {
	Name     string       `toml:"name"`
	Kind     string       `toml:"kind"`
	World    *fileWorld   `toml:"world"`
	Entities []fileEntity `toml:"entity"`
}

// Parse decodes a TOML scenario
//
//	name = "demo"
//	kind = "water"
//
//	[world]
//	width = 16
//	ticks_per_second = 2
//
//	[[entity]]
//	name = "pump"    # optional, unique
//	position = [1, 1]
//	wants = 1
//	has = 100
//	visible = true   # optional
//
// Entities are inserted in file order. Quantities outside 0..255 and unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var f file
	if err := toml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s, err := f.build()
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = "scenario"
	}
	return s, nil
}

// Load reads and parses a scenario file
func Load(path string) (*Scenario, error) {
	var f file
	if err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s, err := f.build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func (f *file) build() (*Scenario, error) {
	kindName := f.Kind
	var w World
	if f.World != nil {
		if f.World.Width < 0 || f.World.Height < 0 {
			return nil, fmt.Errorf("%w: world size %dx%d", ErrInvalid, f.World.Width, f.World.Height)
		}
		if f.World.TicksPerSecond < 0 || f.World.TicksPerSecond > constant.MaxTicksPerSecond {
			return nil, fmt.Errorf("%w: ticks_per_second %g", ErrInvalid, f.World.TicksPerSecond)
		}
		w = World{Width: f.World.Width, Height: f.World.Height, TicksPerSecond: f.World.TicksPerSecond}

		switch {
		case kindName == "":
			kindName = f.World.Kind
		case f.World.Kind != "" && f.World.Kind != kindName:
			return nil, fmt.Errorf("%w: kind %q conflicts with world.kind %q", ErrInvalid, kindName, f.World.Kind)
		}
	}

	kind := resource.KindUnit
	if kindName != "" {
		k, err := resource.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		kind = k
	}

	e := engine.NewEntities(kind, len(f.Entities))
	var labels map[engine.EntityIndex]string
	seen := make(map[string]int)
	for n, fe := range f.Entities {
		if fe.Name != "" {
			if prev, dup := seen[fe.Name]; dup {
				return nil, fmt.Errorf("%w: entity[%d] name %q already used by entity[%d]", ErrInvalid, n, fe.Name, prev)
			}
			seen[fe.Name] = n
		}

		visible := true
		if fe.Visible != nil {
			visible = *fe.Visible
		}
		pos := engine.Position{X: fe.Position[0], Y: fe.Position[1]}
		idx := e.MustInsert(resource.New(kind, fe.Wants), resource.New(kind, fe.Has), pos, visible)

		if fe.Name != "" {
			if labels == nil {
				labels = make(map[engine.EntityIndex]string)
			}
			labels[idx] = fe.Name
		}
	}

	return &Scenario{Name: f.Name, World: w, Entities: e, Labels: labels}, nil
}

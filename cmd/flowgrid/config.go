package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/lixenwraith/flowgrid/constant"
	"github.com/lixenwraith/flowgrid/render"
	"github.com/lixenwraith/flowgrid/resource"
	"github.com/lixenwraith/flowgrid/scenario"
	"github.com/lixenwraith/flowgrid/terminal"
)

// options holds parsed command-line flags
type options struct {
	scenarioPath string
	noise        bool
	seed         int64
	kind         string
	width        int
	height       int
	tps          float64
	ticks        uint64
	renderer     string
	color        string
	glyph        string
	status       bool
	sound        bool
	debug        bool
	profile      string

	// explicitly set flags, these win over scenario file values
	set map[string]bool
}

// settings is the resolved run configuration
type settings struct {
	scenario  *scenario.Scenario
	render    render.Config
	colorMode terminal.ColorMode
	interval  time.Duration
	maxTicks  uint64
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("flowgrid", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.scenarioPath, "scenario", "", "TOML scenario file (default: built-in chain)")
	fs.BoolVar(&o.noise, "noise", false, "Generate a procedural noise field instead of the chain")
	fs.Int64Var(&o.seed, "seed", 1, "Noise seed")
	fs.StringVar(&o.kind, "kind", "unit", "Resource kind for built-in scenarios: unit, water, power, ore")
	fs.IntVar(&o.width, "width", constant.ViewportWidth, "Viewport width in cells")
	fs.IntVar(&o.height, "height", constant.ViewportHeight, "Viewport height in cells")
	fs.Float64Var(&o.tps, "tps", constant.TicksPerSecond, "Ticks per second")
	fs.Uint64Var(&o.ticks, "ticks", 0, "Stop after N ticks (0: run until interrupted)")
	fs.StringVar(&o.renderer, "renderer", "ansi", "Renderer: ansi, screen")
	fs.StringVar(&o.color, "color", "auto", "Color mode: auto, truecolor, 256")
	fs.StringVar(&o.glyph, "glyph", "band", "Entity glyphs: band, index")
	fs.BoolVar(&o.status, "status", false, "Draw a status line under the frame")
	fs.BoolVar(&o.sound, "sound", false, "Play tones when entities saturate or drain")
	fs.BoolVar(&o.debug, "debug", false, "Write debug logs to "+constant.LogDir+"/"+constant.LogFileName)
	fs.StringVar(&o.profile, "profile", "", "Profile the run: cpu, mem")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if o.scenarioPath != "" && o.noise {
		return nil, errors.New("-scenario and -noise are mutually exclusive")
	}
	switch o.renderer {
	case "ansi", "screen":
	default:
		return nil, fmt.Errorf("unknown renderer %q (want ansi or screen)", o.renderer)
	}
	switch o.profile {
	case "", "cpu", "mem":
	default:
		return nil, fmt.Errorf("unknown profile mode %q (want cpu or mem)", o.profile)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("viewport %dx%d must be positive", o.width, o.height)
	}
	if o.tps <= 0 || o.tps > constant.MaxTicksPerSecond {
		return nil, fmt.Errorf("ticks per second must be in (0, %d], got %g", constant.MaxTicksPerSecond, o.tps)
	}
	return o, nil
}

// resolve loads the scenario and merges its world table under explicit flags
func (o *options) resolve() (*settings, error) {
	kind, err := resource.ParseKind(o.kind)
	if err != nil {
		return nil, err
	}
	glyphs, err := render.ParseGlyphMode(o.glyph)
	if err != nil {
		return nil, err
	}

	var sc *scenario.Scenario
	switch {
	case o.scenarioPath != "":
		sc, err = scenario.Load(o.scenarioPath)
	case o.noise:
		cfg := scenario.DefaultNoiseConfig(o.seed)
		if o.set["width"] {
			cfg.Width = o.width
		}
		if o.set["height"] {
			cfg.Height = o.height
		}
		sc, err = scenario.NewNoise(kind, cfg)
	default:
		sc = scenario.NewChain(kind)
	}
	if err != nil {
		return nil, err
	}

	width, height, tps := o.width, o.height, o.tps
	if !o.set["width"] && sc.World.Width > 0 {
		width = sc.World.Width
	}
	if !o.set["height"] && sc.World.Height > 0 {
		height = sc.World.Height
	}
	if !o.set["tps"] && sc.World.TicksPerSecond > 0 {
		tps = sc.World.TicksPerSecond
	}

	return &settings{
		scenario: sc,
		render: render.Config{
			Viewport: render.Viewport{Width: width, Height: height},
			Glyphs:   glyphs,
			Status:   o.status,
		},
		colorMode: terminal.ParseColorMode(o.color),
		interval:  time.Duration(float64(time.Second) / tps),
		maxTicks:  o.ticks,
	}, nil
}

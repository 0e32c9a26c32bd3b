package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/lixenwraith/flowgrid/audio"
	"github.com/lixenwraith/flowgrid/engine"
	"github.com/lixenwraith/flowgrid/render"
	"github.com/lixenwraith/flowgrid/terminal"
	"github.com/pkg/profile"
)

func main() {
	// Panic Recovery: Ensure terminal is reset even if the simulation crashes
	defer func() {
		if r := recover(); r != nil {
			terminal.HandleCrash(r)
		}
	}()

	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "flowgrid: %v\n", err)
		return 2
	}

	if logFile := setupLogging(opts.debug); logFile != nil {
		defer logFile.Close()
	}
	logger := slog.Default().With("run", uuid.NewString())

	switch opts.profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	cfg, err := opts.resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowgrid: %v\n", err)
		return 1
	}
	sc := cfg.scenario
	logger.Info("scenario loaded",
		"name", sc.Name,
		"kind", sc.Entities.Kind(),
		"entities", sc.Entities.Len(),
		"named", len(sc.Labels),
		"viewport", fmt.Sprintf("%dx%d", cfg.render.Viewport.Width, cfg.render.Viewport.Height),
		"renderer", opts.renderer,
		"color", cfg.colorMode,
	)
	for idx, label := range sc.Labels {
		logger.Debug("entity label", "entity", idx, "name", label, "position", sc.Entities.Position(idx))
	}

	ctx, stop := terminal.ShutdownContext(context.Background())
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := engine.NewScheduler(sc.Entities, nil, engine.SchedulerConfig{
		Interval: cfg.interval,
		MaxTicks: cfg.maxTicks,
		Logger:   logger,
	})

	var restore func()
	switch opts.renderer {
	case "screen":
		restore, err = attachScreen(sched, cfg, cancel)
	default:
		restore = attachANSI(sched, cfg, os.Stdout, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowgrid: %v\n", err)
		return 1
	}

	if opts.sound {
		cues := audio.NewCues()
		if err := cues.Init(); err != nil {
			logger.Warn("audio unavailable", "error", err)
			fmt.Fprintf(os.Stderr, "Audio initialization failed: %v (continuing without audio)\n", err)
		} else {
			defer cues.Close()
		}
		sched.OnTick(cues.Observe)
	}

	initial := sc.Entities.Total()
	start := time.Now()
	runErr := sched.Run(ctx)
	restore()

	printSummary(os.Stdout, sc.Name, sched, initial, time.Since(start))
	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		fmt.Fprintf(os.Stderr, "flowgrid: %v\n", runErr)
		return 1
	}
	return 0
}

// attachANSI wires the escape-sequence renderer on out and returns the cursor restore
func attachANSI(sched *engine.Scheduler, cfg *settings, out *os.File, logger *slog.Logger) func() {
	info := terminal.Probe(out)
	w, h := cfg.render.Viewport.Outer()
	if cfg.render.Status {
		h++
	}
	if !info.Fits(w, h) {
		logger.Warn("frame larger than terminal", "frame", fmt.Sprintf("%dx%d", w, h), "terminal", fmt.Sprintf("%dx%d", info.Width, info.Height))
		fmt.Fprintf(os.Stderr, "warning: %dx%d frame exceeds %dx%d terminal\n", w, h, info.Width, info.Height)
	}

	r := render.NewANSIRenderer(out, cfg.colorMode, cfg.render)
	r.Paused = sched.Paused
	sched.SetRenderer(r)

	if !info.IsTTY {
		return func() {}
	}
	cursor := terminal.NewWriter(out, cfg.colorMode)
	cursor.HideCursor()
	cursor.Flush()
	return func() {
		cursor.ResetStyle()
		cursor.ShowCursor()
		cursor.Flush()
	}
}

// attachScreen wires the tcell renderer and its keyboard loop
// q, Esc and Ctrl-C cancel the run, space toggles pause
func attachScreen(sched *engine.Scheduler, cfg *settings, cancel context.CancelFunc) (func(), error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}

	r := render.NewScreenRenderer(screen, cfg.render)
	r.Paused = sched.Paused
	sched.SetRenderer(r)

	terminal.Go(func() {
		render.PollInput(screen, render.Controls{
			Quit:        cancel,
			TogglePause: sched.TogglePause,
		})
	})
	return screen.Fini, nil
}

func printSummary(w io.Writer, name string, sched *engine.Scheduler, initial uint64, elapsed time.Duration) {
	e := sched.Entities()
	total := e.Total()
	fmt.Fprintf(w, "%s: %s ticks in %s, %s entities, %s %s held (started with %s)\n",
		name,
		humanize.Comma(int64(sched.Ticks())),
		elapsed.Round(time.Millisecond),
		humanize.Comma(int64(e.Len())),
		humanize.Comma(int64(total)),
		e.Kind(),
		humanize.Comma(int64(initial)),
	)
}

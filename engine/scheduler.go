package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/flowgrid/constant"
)

// Renderer draws the graph once per tick, before the update mutates it
type Renderer interface {
	Render(e *Entities, tick uint64) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(e *Entities, tick uint64) error

// Render calls f
func (f RendererFunc) Render(e *Entities, tick uint64) error {
	return f(e, tick)
}

// TickReport summarizes one executed tick
type TickReport struct {
	Tick      uint64
	Transfers int
	Moved     uint64        // total drawn from sources
	Saturated []EntityIndex // reached Max during the tick
	Drained   []EntityIndex // reached zero during the tick
	Total     uint64        // sum of holdings after the update
	Elapsed   time.Duration // render + update time
}

// SchedulerConfig configures the tick driver
type SchedulerConfig struct {
	// Interval is the tick budget; the remainder after a tick is slept out
	Interval time.Duration
	// MaxTicks stops Run after that many ticks, 0 runs until the context is done
	MaxTicks uint64
	Logger   *slog.Logger
	Clock    Clock
}

// Scheduler drives the simulation on a fixed tick: render, debug log, update, hooks, pace
// The graph is owned by the scheduler goroutine; only the pause flag may be touched elsewhere
type Scheduler struct {
	entities *Entities
	renderer Renderer
	logger   *slog.Logger
	clock    Clock

	interval time.Duration
	maxTicks uint64

	completed atomic.Uint64
	paused    atomic.Bool

	hooks []func(TickReport)
}

// NewScheduler creates a scheduler over entities; renderer may be nil for headless runs
func NewScheduler(entities *Entities, renderer Renderer, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		entities: entities,
		renderer: renderer,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		interval: cfg.Interval,
		maxTicks: cfg.MaxTicks,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.clock == nil {
		s.clock = NewMonotonicClock()
	}
	return s
}

// OnTick registers a hook receiving each tick's report, must be called before Run
func (s *Scheduler) OnTick(fn func(TickReport)) {
	s.hooks = append(s.hooks, fn)
}

// SetRenderer replaces the renderer, must be called before Run
func (s *Scheduler) SetRenderer(r Renderer) {
	s.renderer = r
}

// Entities returns the driven graph
func (s *Scheduler) Entities() *Entities {
	return s.entities
}

// Ticks returns the number of completed ticks
func (s *Scheduler) Ticks() uint64 {
	return s.completed.Load()
}

// Pause suspends ticking; Run keeps polling at a reduced rate
func (s *Scheduler) Pause() {
	s.paused.Store(true)
}

// Resume continues ticking
func (s *Scheduler) Resume() {
	s.paused.Store(false)
}

// TogglePause flips the pause state and returns the new state
func (s *Scheduler) TogglePause() bool {
	for {
		old := s.paused.Load()
		if s.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Paused reports whether ticking is suspended
func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

// Step executes exactly one tick without pacing
// Tick numbers start at 1
func (s *Scheduler) Step() (TickReport, error) {
	start := s.clock.Now()
	tick := s.completed.Load() + 1
	report := TickReport{Tick: tick}

	if s.renderer != nil {
		if err := s.renderer.Render(s.entities, tick); err != nil {
			return report, fmt.Errorf("render tick %d: %w", tick, err)
		}
	}

	n := s.entities.Len()
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		for i := 0; i < n; i++ {
			s.logger.Debug("entity", "tick", tick, "state", s.entities.Snapshot(EntityIndex(i)))
		}
	}

	before := s.entities.Holdings()
	s.entities.UpdateObserved(func(t Transfer) {
		report.Transfers++
		report.Moved += uint64(t.Amount)
	})

	for i := 0; i < n; i++ {
		h := s.entities.Has(EntityIndex(i))
		report.Total += uint64(h.Amount)
		switch {
		case h.Full() && before[i] != h.Amount:
			report.Saturated = append(report.Saturated, EntityIndex(i))
		case h.Empty() && before[i] != 0:
			report.Drained = append(report.Drained, EntityIndex(i))
		}
	}

	report.Elapsed = s.clock.Now().Sub(start)
	s.completed.Add(1)

	for _, fn := range s.hooks {
		fn(report)
	}
	return report, nil
}

// Run ticks until ctx is done or MaxTicks is reached
// Cancellation is a normal stop and returns nil; render failures are returned
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "entities", s.entities.Len(), "max_ticks", s.maxTicks)
	defer func() {
		s.logger.Info("scheduler stopped", "ticks", s.completed.Load())
	}()

	wasPaused := false
	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.maxTicks > 0 && s.completed.Load() >= s.maxTicks {
			return nil
		}

		if s.paused.Load() {
			// Redraw once on entering pause so the frame reflects it, then poll slower
			// The frame shows the pending tick, numbered as Step would number it
			if !wasPaused && s.renderer != nil {
				if err := s.renderer.Render(s.entities, s.completed.Load()+1); err != nil {
					return fmt.Errorf("render paused frame: %w", err)
				}
			}
			wasPaused = true
			if err := s.clock.Sleep(ctx, max(s.interval*2, constant.MinPausePoll)); err != nil {
				return ignoreCancel(err)
			}
			continue
		}
		wasPaused = false

		start := s.clock.Now()
		report, err := s.Step()
		if err != nil {
			return err
		}

		elapsed := s.clock.Now().Sub(start)
		remaining := s.interval - elapsed
		s.logger.Debug("frame",
			"tick", report.Tick,
			"render_time", report.Elapsed,
			"frame_time", max(elapsed, s.interval),
			"target", s.interval,
		)

		if remaining <= 0 {
			s.logger.Debug("tick overrun", "tick", report.Tick, "over", -remaining)
			continue
		}
		if err := s.clock.Sleep(ctx, remaining); err != nil {
			return ignoreCancel(err)
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

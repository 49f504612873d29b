package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ErrAlreadyStarted is returned when Run is called on a scheduler that is
// not idle.
var ErrAlreadyStarted = errors.New("frame scheduler already started")

// State is the scheduler lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Callback is the per-frame host function. dt is the time in seconds since
// the previous tick (0 on the first frames). A returned error ends the loop.
type Callback func(ctx context.Context, dt float64) error

// Clearer is the part of a rendering surface the scheduler needs.
type Clearer interface {
	Clear()
}

// Scheduler runs a Callback once per tick.
//
// Each iteration clears the surface, runs the callback to completion and
// then waits for the next tick, so frames never overlap. Drawing happens
// in the order the callback issues it.
type Scheduler struct {
	ticks     TickSource
	surface   Clearer
	clock     Clock
	afterTick func(dt float64) error
	state     atomic.Int32
	stop      atomic.Bool
	frames    atomic.Int64
	fps       *FPSCounter
	log       *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithAfterTick installs a hook that runs after every tick with the new
// delta, before the next callback. An error from the hook ends the loop.
func WithAfterTick(fn func(dt float64) error) Option {
	return func(s *Scheduler) {
		s.afterTick = fn
	}
}

// NewScheduler creates an idle scheduler. surface may be nil.
func NewScheduler(ticks TickSource, surface Clearer, opts ...Option) *Scheduler {
	s := &Scheduler{
		ticks:   ticks,
		surface: surface,
		fps:     NewFPSCounter(0),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Frames returns the number of callbacks completed.
func (s *Scheduler) Frames() int64 {
	return s.frames.Load()
}

// Stats returns the frame rate observed so far.
func (s *Scheduler) Stats() FPSStats {
	return s.fps.Stats()
}

// Stop asks the loop to end before its next iteration. It is safe to call
// from the callback or from another goroutine.
func (s *Scheduler) Stop() {
	s.stop.Store(true)
}

// Run drives cb until Stop is called, ctx is done, the tick source ends,
// or cb returns an error. It may be called only once.
//
// A context cancellation is returned as ctx.Err(). Callback and tick
// errors are returned wrapped with the frame number.
func (s *Scheduler) Run(ctx context.Context, cb Callback) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer s.state.Store(int32(StateStopped))

	s.clock.Reset()
	s.log.Debug("Scheduler: started")

	dt := 0.0
	for frame := int64(0); ; frame++ {
		if s.stop.Load() {
			s.log.Debug("Scheduler: stopped", "frames", frame)
			return nil
		}
		if err := ctx.Err(); err != nil {
			s.log.Debug("Scheduler: context done", "frames", frame, "error", err)
			return err
		}

		if s.surface != nil {
			s.surface.Clear()
		}
		if err := cb(ctx, dt); err != nil {
			s.log.Error("Scheduler: callback failed", "frame", frame, "error", err)
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		s.frames.Add(1)

		ts, err := s.ticks.NextTick(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrTicksExhausted):
				s.log.Debug("Scheduler: tick source exhausted", "frames", frame+1)
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			}
			return fmt.Errorf("frame %d: waiting for tick: %w", frame, err)
		}
		dt = s.clock.Advance(ts)
		s.fps.Record(dt)

		if s.afterTick != nil {
			if err := s.afterTick(dt); err != nil {
				return fmt.Errorf("frame %d: after tick: %w", frame, err)
			}
		}
	}
}

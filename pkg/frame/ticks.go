package frame

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultFPS is the tick rate used when none is configured.
const DefaultFPS = 60

// ErrTicksExhausted is returned by ManualTicks after its last timestamp.
// The scheduler treats it as a normal end of the loop.
var ErrTicksExhausted = errors.New("tick sequence exhausted")

// TickSource delivers refresh signals as monotonically non-decreasing
// timestamps in milliseconds. NextTick blocks until the next refresh.
type TickSource interface {
	NextTick(ctx context.Context) (float64, error)
}

// TickFunc adapts a function to TickSource.
type TickFunc func(ctx context.Context) (float64, error)

func (f TickFunc) NextTick(ctx context.Context) (float64, error) {
	return f(ctx)
}

// TimerTicks produces ticks from a wall-clock ticker. It is the refresh
// source in headless mode.
//
// The clock starts on the first NextTick, so time spent between creation
// and the first frame (loading assets, for instance) is not reported as
// elapsed.
type TimerTicks struct {
	ticker   *time.Ticker
	interval time.Duration
	start    time.Time
	started  bool
}

// NewTimerTicks creates a ticker running at fps ticks per second.
// A non-positive fps uses DefaultFPS.
func NewTimerTicks(fps int) *TimerTicks {
	if fps <= 0 {
		fps = DefaultFPS
	}
	interval := time.Second / time.Duration(fps)
	return &TimerTicks{
		ticker:   time.NewTicker(interval),
		interval: interval,
	}
}

// NextTick waits for the next tick and returns the elapsed milliseconds
// since the first call.
func (t *TimerTicks) NextTick(ctx context.Context) (float64, error) {
	if !t.started {
		t.restart()
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case now := <-t.ticker.C:
		return float64(now.Sub(t.start).Microseconds()) / 1000, nil
	}
}

// restart rewinds the ticker and drops a tick buffered before the first call.
func (t *TimerTicks) restart() {
	t.ticker.Reset(t.interval)
	select {
	case <-t.ticker.C:
	default:
	}
	t.start = time.Now()
	t.started = true
}

// Stop releases the underlying ticker.
func (t *TimerTicks) Stop() {
	t.ticker.Stop()
}

// ManualTicks replays a fixed sequence of timestamps without waiting.
// It is meant for deterministic tests.
type ManualTicks struct {
	ticks []float64
	next  int
	mu    sync.Mutex
}

// NewManualTicks creates a source that yields ticks in order.
func NewManualTicks(ticks ...float64) *ManualTicks {
	return &ManualTicks{ticks: ticks}
}

func (m *ManualTicks) NextTick(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.next >= len(m.ticks) {
		return 0, ErrTicksExhausted
	}
	ts := m.ticks[m.next]
	m.next++
	return ts, nil
}

// Remaining returns the number of ticks not yet delivered.
func (m *ManualTicks) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ticks) - m.next
}

// Package frame drives a host callback once per display refresh.
//
// A Scheduler pulls timestamps from a TickSource, converts them into a
// per-frame delta time with a Clock, clears the rendering surface and runs
// the callback to completion before waiting for the next tick.
package frame

// Clock tracks the previous tick timestamp and the delta between ticks.
//
// Timestamps are in milliseconds, deltas in seconds. The first tick after
// Reset has a delta of 0.
type Clock struct {
	last    float64
	hasLast bool
	delta   float64
}

// Reset forgets the previous tick. The scheduler calls it only on start.
func (c *Clock) Reset() {
	c.last = 0
	c.hasLast = false
	c.delta = 0
}

// Advance records a tick at ts (milliseconds) and returns the delta in seconds.
func (c *Clock) Advance(ts float64) float64 {
	if c.hasLast {
		c.delta = (ts - c.last) / 1000
	} else {
		c.delta = 0
		c.hasLast = true
	}
	c.last = ts
	return c.delta
}

// Delta returns the most recent delta in seconds.
func (c *Clock) Delta() float64 {
	return c.delta
}

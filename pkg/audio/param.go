package audio

import "sort"

type eventKind int

const (
	eventSetValue eventKind = iota
	eventLinearRamp
)

type paramEvent struct {
	kind  eventKind
	time  float64
	value float64
}

// Param is an automatable gain value on the audio timeline.
//
// Events are kept ordered by time. A set event holds its value until the
// next event; a linear ramp interpolates from the previous event to its own
// (time, value). Times are in seconds of audio clock.
type Param struct {
	value    float64
	baseTime float64
	events   []paramEvent
}

// NewParam creates a Param with a constant initial value.
func NewParam(value float64) *Param {
	return &Param{value: value}
}

// SetValueAtTime schedules an immediate change to value at time t.
func (p *Param) SetValueAtTime(value, t float64) {
	p.insert(paramEvent{kind: eventSetValue, time: t, value: value})
}

// LinearRampToValueAtTime schedules a linear ramp that reaches value at time t.
func (p *Param) LinearRampToValueAtTime(value, t float64) {
	p.insert(paramEvent{kind: eventLinearRamp, time: t, value: value})
}

// CancelScheduledValues removes every event scheduled at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

// ValueAt evaluates the automation at time t.
func (p *Param) ValueAt(t float64) float64 {
	value, prevTime := p.value, p.baseTime
	for _, e := range p.events {
		if e.time <= t {
			value, prevTime = e.value, e.time
			continue
		}
		if e.kind == eventLinearRamp {
			span := e.time - prevTime
			if span <= 0 {
				return e.value
			}
			return value + (e.value-value)*(t-prevTime)/span
		}
		break
	}
	return value
}

// Pending reports whether any event is scheduled after t.
func (p *Param) Pending(t float64) bool {
	return len(p.events) > 0 && p.events[len(p.events)-1].time > t
}

// insert adds an event after any existing events with the same time.
func (p *Param) insert(e paramEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// compact folds events that can no longer affect values at or after t
// into the base value. ValueAt(t') is unchanged for every t' >= t.
func (p *Param) compact(t float64) {
	n := 0
	for n < len(p.events) && p.events[n].time <= t {
		n++
	}
	keep := n
	// a pending ramp interpolates from the last past event
	if n < len(p.events) && p.events[n].kind == eventLinearRamp {
		keep--
	}
	if keep <= 0 {
		return
	}
	last := p.events[keep-1]
	p.value, p.baseTime = last.value, last.time
	p.events = append(p.events[:0], p.events[keep:]...)
}

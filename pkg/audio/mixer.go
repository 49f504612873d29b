package audio

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// VolumeRampDuration is how long SetVolume takes to reach its target, in seconds.
const VolumeRampDuration = 0.5

// ChannelID selects a gain node in the mixer graph.
type ChannelID int

const (
	ChannelMusic ChannelID = iota
	ChannelSfx
	ChannelMaster
)

func (c ChannelID) String() string {
	switch c {
	case ChannelMusic:
		return "music"
	case ChannelSfx:
		return "sfx"
	case ChannelMaster:
		return "master"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ParseChannel converts a channel name to a ChannelID.
func ParseChannel(name string) (ChannelID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "music":
		return ChannelMusic, nil
	case "sfx":
		return ChannelSfx, nil
	case "master":
		return ChannelMaster, nil
	default:
		return 0, fmt.Errorf("unknown audio channel: %q", name)
	}
}

// BufferSource looks up decoded audio by key.
// A missing key returns the source's own error, which the mixer propagates.
type BufferSource interface {
	Audio(key string) (*Buffer, error)
}

// Voice is a single playback of a Buffer on a channel.
type Voice struct {
	key     string
	buffer  *Buffer
	pos     int
	loop    bool
	stopped bool
}

// Key returns the resource key the voice was started with.
func (v *Voice) Key() string { return v.key }

// Loop reports whether the voice wraps at the end of its buffer.
func (v *Voice) Loop() bool { return v.loop }

// Playing reports whether the voice still produces samples.
func (v *Voice) Playing() bool { return !v.stopped }

func (v *Voice) stop() { v.stopped = true }

// next returns the next stereo frame and advances the play position.
func (v *Voice) next() (float32, float32) {
	if v.stopped {
		return 0, 0
	}
	n := v.buffer.Frames()
	if v.pos >= n {
		if !v.loop || n == 0 {
			v.stopped = true
			return 0, 0
		}
		v.pos = 0
	}
	l, r := v.buffer.Left[v.pos], v.buffer.Right[v.pos]
	v.pos++
	if v.pos >= n && !v.loop {
		v.stopped = true
	}
	return l, r
}

// Channel is a named gain node holding at most one voice.
type Channel struct {
	id    ChannelID
	gain  *Param
	voice *Voice
}

func newChannel(id ChannelID) *Channel {
	return &Channel{id: id, gain: NewParam(1)}
}

func (c *Channel) stopVoice() {
	if c.voice != nil {
		c.voice.stop()
		c.voice = nil
	}
}

// Mixer renders the music and sfx channels through a master gain.
//
// Gains are evaluated per sample frame on the mixer's own clock, which
// advances only as frames are rendered. The Ebitengine audio goroutine
// calls Read concurrently with the frame loop, so every method locks.
type Mixer struct {
	sources BufferSource
	master  *Param
	music   *Channel
	sfx     *Channel
	frames  int64
	pending float64
	scratch [2][]float32
	log     *slog.Logger
	mu      sync.Mutex
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithLogger sets the mixer's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Mixer) {
		m.log = log
	}
}

// NewMixer creates a mixer with all gains at 1 and no voices.
func NewMixer(sources BufferSource, opts ...Option) *Mixer {
	m := &Mixer{
		sources: sources,
		master:  NewParam(1),
		music:   newChannel(ChannelMusic),
		sfx:     newChannel(ChannelSfx),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the audio clock in seconds.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

func (m *Mixer) now() float64 {
	return float64(m.frames) / SampleRate
}

// PlayMusic replaces the music voice with a looping voice for key.
func (m *Mixer) PlayMusic(key string) error {
	return m.play(m.music, key, true)
}

// PlaySfx replaces the sfx voice with a one-shot voice for key.
func (m *Mixer) PlaySfx(key string) error {
	return m.play(m.sfx, key, false)
}

// play stops the channel's current voice before looking up the new buffer,
// so a failed lookup leaves the channel silent.
func (m *Mixer) play(ch *Channel, key string, loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch.stopVoice()

	buf, err := m.sources.Audio(key)
	if err != nil {
		return err
	}

	ch.voice = &Voice{key: key, buffer: buf, loop: loop}
	m.log.Debug("Mixer: voice started", "channel", ch.id, "key", key, "loop", loop)
	return nil
}

// StopMusic stops and clears the music voice. Calling it with no voice is a no-op.
func (m *Mixer) StopMusic() {
	m.stop(m.music)
}

// StopSfx stops and clears the sfx voice.
func (m *Mixer) StopSfx() {
	m.stop(m.sfx)
}

// StopAll stops both channels.
func (m *Mixer) StopAll() {
	m.stop(m.music)
	m.stop(m.sfx)
}

func (m *Mixer) stop(ch *Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch.stopVoice()
}

// Current returns the key of the voice playing on a channel.
func (m *Mixer) Current(id ChannelID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := m.channel(id)
	if ch == nil || ch.voice == nil || !ch.voice.Playing() {
		return "", false
	}
	return ch.voice.key, true
}

// SetVolume ramps a channel's gain from its current value to level over
// VolumeRampDuration. level is clamped to [0, 1].
func (m *Mixer) SetVolume(id ChannelID, level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gain := m.gain(id)
	if gain == nil {
		return fmt.Errorf("unknown audio channel: %v", id)
	}
	level = clampLevel(level)

	now := m.now()
	current := gain.ValueAt(now)
	gain.CancelScheduledValues(now)
	gain.SetValueAtTime(current, now)
	gain.LinearRampToValueAtTime(level, now+VolumeRampDuration)

	m.log.Debug("Mixer: volume ramp", "channel", id, "from", current, "to", level, "at", now)
	return nil
}

// Volume returns a channel's gain at the current audio time.
func (m *Mixer) Volume(id ChannelID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	gain := m.gain(id)
	if gain == nil {
		return 0
	}
	return gain.ValueAt(m.now())
}

// clampLevel limits a gain level to [0, 1]. NaN becomes 0.
func clampLevel(level float64) float64 {
	if math.IsNaN(level) || level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

func (m *Mixer) channel(id ChannelID) *Channel {
	switch id {
	case ChannelMusic:
		return m.music
	case ChannelSfx:
		return m.sfx
	default:
		return nil
	}
}

func (m *Mixer) gain(id ChannelID) *Param {
	if id == ChannelMaster {
		return m.master
	}
	if ch := m.channel(id); ch != nil {
		return ch.gain
	}
	return nil
}

// Render mixes len(left) frames into left and right and advances the clock.
// Both slices must have the same length.
func (m *Mixer) Render(left, right []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.render(left, right)
}

func (m *Mixer) render(left, right []float32) {
	n := min(len(left), len(right))
	for i := range n {
		t := float64(m.frames+int64(i)) / SampleRate
		master := float32(m.master.ValueAt(t))

		var l, r float32
		for _, ch := range []*Channel{m.music, m.sfx} {
			if ch.voice == nil {
				continue
			}
			g := float32(ch.gain.ValueAt(t)) * master
			vl, vr := ch.voice.next()
			l += vl * g
			r += vr * g
		}
		// hard limit in place of a dynamics compressor
		left[i] = clamp(l, -1, 1)
		right[i] = clamp(r, -1, 1)
	}
	m.frames += int64(n)

	now := m.now()
	m.master.compact(now)
	for _, ch := range []*Channel{m.music, m.sfx} {
		ch.gain.compact(now)
		if ch.voice != nil && !ch.voice.Playing() {
			m.log.Debug("Mixer: voice finished", "channel", ch.id, "key", ch.voice.key)
			ch.voice = nil
		}
	}
}

// Read implements io.Reader, producing 16-bit little-endian stereo frames.
// It never returns io.EOF; with no voices it produces silence.
func (m *Mixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	left, right := m.scratchBuffers(frames)
	m.render(left, right)
	for i := range frames {
		putFrame(p[i*bytesPerFrame:], left[i], right[i])
	}
	return frames * bytesPerFrame, nil
}

// Advance renders and discards dt seconds of audio. It keeps voices and
// ramps moving when no output device pulls from the mixer.
func (m *Mixer) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending += dt * SampleRate
	frames := int(m.pending)
	m.pending -= float64(frames)

	const block = 1024
	for frames > 0 {
		n := min(frames, block)
		left, right := m.scratchBuffers(n)
		m.render(left, right)
		frames -= n
	}
}

func (m *Mixer) scratchBuffers(n int) ([]float32, []float32) {
	if cap(m.scratch[0]) < n {
		m.scratch[0] = make([]float32, n)
		m.scratch[1] = make([]float32, n)
	}
	return m.scratch[0][:n], m.scratch[1][:n]
}

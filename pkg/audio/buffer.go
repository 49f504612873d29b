// Package audio provides the software mixer used for music and sound effects.
//
// Decoded tracks are held as planar float32 buffers at SampleRate. The mixer
// renders them through a fixed gain graph (music and sfx channels feeding a
// master gain) and exposes the result as a 16-bit stereo stream for
// Ebitengine's audio player or for a WAV recorder.
package audio

import (
	"encoding/binary"
	"time"
)

// SampleRate is the sample rate of every decoded buffer and of the mixer output.
const SampleRate = 44100

// bytesPerFrame is the size of one 16-bit stereo frame.
const bytesPerFrame = 4

// Buffer holds decoded PCM audio as planar stereo samples in [-1, 1].
type Buffer struct {
	Left  []float32
	Right []float32
}

// NewBuffer creates a Buffer from planar samples.
// A nil right channel makes the buffer mono (both channels share left).
func NewBuffer(left, right []float32) *Buffer {
	if right == nil {
		right = left
	}
	if len(right) < len(left) {
		left = left[:len(right)]
	}
	return &Buffer{Left: left, Right: right[:len(left)]}
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	return len(b.Left)
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(float64(b.Frames()) / SampleRate * float64(time.Second))
}

// bufferFromPCM16 converts interleaved 16-bit little-endian stereo PCM into a Buffer.
// A trailing partial frame is ignored.
func bufferFromPCM16(data []byte) *Buffer {
	frames := len(data) / bytesPerFrame
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := range frames {
		l := int16(binary.LittleEndian.Uint16(data[i*bytesPerFrame:]))
		r := int16(binary.LittleEndian.Uint16(data[i*bytesPerFrame+2:]))
		left[i] = float32(l) / 32768
		right[i] = float32(r) / 32768
	}
	return &Buffer{Left: left, Right: right}
}

// clamp restricts a value to the range [min, max].
func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// putFrame writes one stereo frame as 16-bit little-endian samples.
func putFrame(p []byte, l, r float32) {
	binary.LittleEndian.PutUint16(p, uint16(int16(clamp(l, -1, 1)*32767)))
	binary.LittleEndian.PutUint16(p[2:], uint16(int16(clamp(r, -1, 1)*32767)))
}

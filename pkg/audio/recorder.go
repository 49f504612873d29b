package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// recorderBlock is the number of frames rendered per encoder write.
const recorderBlock = 4096

// WAVRecorder captures the mixer output into a 16-bit stereo WAV file.
//
// It pulls audio from the mixer itself, so it must not be combined with an
// Output on the same mixer.
type WAVRecorder struct {
	mixer   *Mixer
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	left    []float32
	right   []float32
	frames  int64
	pending float64
}

// NewWAVRecorder creates a recorder writing to w. Close must be called to
// finish the WAV header.
func NewWAVRecorder(w io.WriteSeeker, m *Mixer) *WAVRecorder {
	return &WAVRecorder{
		mixer: m,
		enc:   wav.NewEncoder(w, SampleRate, 16, 2, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: SampleRate},
			SourceBitDepth: 16,
		},
		left:  make([]float32, recorderBlock),
		right: make([]float32, recorderBlock),
	}
}

// Advance renders dt seconds of mixer output and appends it to the file.
// Fractional frames are carried over to the next call.
func (r *WAVRecorder) Advance(dt float64) error {
	if dt <= 0 {
		return nil
	}
	r.pending += dt * SampleRate
	frames := int(r.pending)
	r.pending -= float64(frames)

	for frames > 0 {
		n := min(frames, recorderBlock)
		if err := r.record(n); err != nil {
			return err
		}
		frames -= n
	}
	return nil
}

func (r *WAVRecorder) record(n int) error {
	left, right := r.left[:n], r.right[:n]
	r.mixer.Render(left, right)

	data := r.buf.Data[:0]
	for i := range n {
		data = append(data, int(left[i]*32767), int(right[i]*32767))
	}
	r.buf.Data = data

	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	r.frames += int64(n)
	return nil
}

// Frames returns the number of frames written so far.
func (r *WAVRecorder) Frames() int64 {
	return r.frames
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (r *WAVRecorder) Close() error {
	if err := r.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// ErrNoSoundFont is returned when a MIDI track is decoded without a SoundFont.
var ErrNoSoundFont = errors.New("SoundFont file is required for MIDI playback")

// ErrUnsupportedFormat is returned when the audio format cannot be determined.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrMIDIInvalidFormat is returned when MIDI data cannot be parsed.
var ErrMIDIInvalidFormat = errors.New("invalid MIDI file format")

// DefaultMaxMIDIDuration bounds the length of a rendered MIDI track.
const DefaultMaxMIDIDuration = 10 * time.Minute

// midiReleaseTail is rendered after the last MIDI event so notes can decay.
const midiReleaseTail = time.Second

// Format identifies an audio container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatOgg
	FormatMP3
	FormatMIDI
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatOgg:
		return "ogg"
	case FormatMP3:
		return "mp3"
	case FormatMIDI:
		return "midi"
	default:
		return "unknown"
	}
}

// DecodeOptions configures Decode.
type DecodeOptions struct {
	// SoundFont renders MIDI tracks. Required only for MIDI.
	SoundFont *meltysynth.SoundFont
	// MaxMIDIDuration caps rendered MIDI length. Zero means DefaultMaxMIDIDuration.
	MaxMIDIDuration time.Duration
}

// DetectFormat picks the format from the file extension, falling back to
// the leading magic bytes when the extension is missing or unknown.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".ogg", ".oga":
		return FormatOgg
	case ".mp3":
		return FormatMP3
	case ".mid", ".midi", ".smf":
		return FormatMIDI
	}

	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatOgg
	case bytes.HasPrefix(data, []byte("MThd")):
		return FormatMIDI
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Decode decodes a complete audio file into a Buffer at SampleRate.
func Decode(name string, data []byte, opts DecodeOptions) (*Buffer, error) {
	switch format := DetectFormat(name, data); format {
	case FormatWAV:
		stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode WAV %s: %w", name, err)
		}
		return readPCM16(name, stream)

	case FormatOgg:
		stream, err := vorbis.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode Ogg Vorbis %s: %w", name, err)
		}
		return readPCM16(name, stream)

	case FormatMP3:
		return decodeMP3(name, data)

	case FormatMIDI:
		return renderMIDI(name, data, opts)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// decodeMP3 decodes MP3 data, resampling to SampleRate when needed.
// go-mp3 always produces 16-bit little-endian stereo.
func decodeMP3(name string, data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3 %s: %w", name, err)
	}

	var stream io.Reader = dec
	if dec.SampleRate() != SampleRate {
		stream = audio.Resample(dec, dec.Length(), dec.SampleRate(), SampleRate)
	}
	return readPCM16(name, stream)
}

// readPCM16 drains a 16-bit stereo stream into a Buffer.
func readPCM16(name string, r io.Reader) (*Buffer, error) {
	pcm, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data from %s: %w", name, err)
	}
	return bufferFromPCM16(pcm), nil
}

// renderMIDI renders a Standard MIDI File through the SoundFont synthesizer.
// The whole track is rendered once so it can be looped like any other buffer.
func renderMIDI(name string, data []byte, opts DecodeOptions) (*Buffer, error) {
	if opts.SoundFont == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSoundFont, name)
	}

	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMIDIInvalidFormat, name, err)
	}

	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(opts.SoundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	sequencer := meltysynth.NewMidiFileSequencer(synth)
	sequencer.Play(midi, false)

	maxDuration := opts.MaxMIDIDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxMIDIDuration
	}
	length := midi.GetLength() + midiReleaseTail
	if length > maxDuration {
		length = maxDuration
	}

	frames := int(length.Seconds() * SampleRate)
	left := make([]float32, frames)
	right := make([]float32, frames)

	// Render in blocks so the synthesizer state advances the same way as
	// when it is streamed.
	const block = 1024
	for start := 0; start < frames; start += block {
		end := min(start+block, frames)
		sequencer.Render(left[start:end], right[start:end])
	}

	return &Buffer{Left: left, Right: right}, nil
}

package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	globalAudioContext *audio.Context
	audioContextMutex  sync.Mutex
)

// getAudioContext returns the global audio context, creating it if necessary.
// Ebitengine allows only one context per process.
func getAudioContext() *audio.Context {
	audioContextMutex.Lock()
	defer audioContextMutex.Unlock()

	if globalAudioContext == nil {
		if ctx := audio.CurrentContext(); ctx != nil {
			globalAudioContext = ctx
		} else {
			globalAudioContext = audio.NewContext(SampleRate)
		}
	}
	return globalAudioContext
}

// outputBufferSize keeps gain changes audible within a couple of frames.
const outputBufferSize = 50 * time.Millisecond

// Output streams a Mixer to the audio device through Ebitengine.
type Output struct {
	player *audio.Player
}

// NewOutput starts playing the mixer on the default audio device.
func NewOutput(m *Mixer) (*Output, error) {
	player, err := getAudioContext().NewPlayer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	player.SetBufferSize(outputBufferSize)
	player.Play()
	return &Output{player: player}, nil
}

// Close stops playback and releases the player.
func (o *Output) Close() error {
	return o.player.Close()
}

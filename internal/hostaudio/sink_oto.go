//go:build !headless

package hostaudio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Sink plays a Stream through the system sound card.
type Sink struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

// NewSink opens the audio device. bufferPeriod sizes the device buffer;
// oto picks its own when zero.
func NewSink(sampleRate int, bufferPeriod time.Duration, stream *Stream) (*Sink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("hostaudio: open device: %w", err)
	}
	<-ready

	return &Sink{ctx: ctx, player: ctx.NewPlayer(stream)}, nil
}

// Start begins playback.
func (s *Sink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.player.Play()
		s.started = true
	}
}

// Close stops playback. The oto context itself lives until process exit.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = false

	return s.player.Close()
}

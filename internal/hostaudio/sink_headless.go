//go:build headless

package hostaudio

import (
	"sync"
	"time"
)

// Sink consumes a Stream at real-time pace without audio hardware.
type Sink struct {
	stream *Stream
	period time.Duration
	chunk  []byte

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

// NewSink prepares a timer-driven consumer reading one buffer period of
// PCM per tick.
func NewSink(sampleRate int, bufferPeriod time.Duration, stream *Stream) (*Sink, error) {
	if bufferPeriod <= 0 {
		bufferPeriod = time.Duration(len(stream.pcm)/BytesPerFrame) * time.Second / time.Duration(sampleRate)
	}

	frames := int(bufferPeriod * time.Duration(sampleRate) / time.Second)

	return &Sink{
		stream: stream,
		period: bufferPeriod,
		chunk:  make([]byte, max(frames, 1)*BytesPerFrame),
	}, nil
}

// Start begins consuming.
func (s *Sink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quit != nil {
		return
	}

	s.quit = make(chan struct{})
	s.done = make(chan struct{})

	go func(quit, done chan struct{}) {
		defer close(done)

		ticker := time.NewTicker(s.period)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				_, _ = s.stream.Read(s.chunk)
			}
		}
	}(s.quit, s.done)
}

// Close stops consuming.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quit != nil {
		close(s.quit)
		<-s.done
		s.quit = nil
	}

	return nil
}

package mute

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emeb/S3GTA/dsp/core"
)

// State is the envelope phase.
type State int32

// Envelope phases.
const (
	Passthrough State = iota
	MutingDown
	Muted
	MutingUp
)

// DefaultPollInterval is how often a blocked request re-checks the state.
const DefaultPollInterval = time.Millisecond

func (s State) String() string {
	switch s {
	case Passthrough:
		return "passthrough"
	case MutingDown:
		return "muting-down"
	case Muted:
		return "muted"
	case MutingUp:
		return "muting-up"
	default:
		return "invalid"
	}
}

// Terminal reports whether s is a resting state.
func (s State) Terminal() bool {
	return s == Passthrough || s == Muted
}

// Envelope is the soft-mute controller. The zero value is not usable; call New.
type Envelope struct {
	state   atomic.Int32
	counter atomic.Int32

	corruptions atomic.Uint32

	pollInterval time.Duration
	log          logrus.FieldLogger
}

// Option configures an Envelope.
type Option func(*Envelope)

// WithPollInterval sets the polling period of blocking requests.
func WithPollInterval(d time.Duration) Option {
	return func(e *Envelope) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Envelope) {
		if l != nil {
			e.log = l
		}
	}
}

// WithInitialState sets the starting phase. Only terminal states are
// accepted; the default is Muted.
func WithInitialState(s State) Option {
	return func(e *Envelope) {
		if s.Terminal() {
			e.state.Store(int32(s))
		}
	}
}

// New returns an envelope resting in Muted with a zero counter.
func New(opts ...Option) *Envelope {
	e := &Envelope{
		pollInterval: DefaultPollInterval,
		log:          logrus.StandardLogger(),
	}
	e.state.Store(int32(Muted))

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// State returns the current phase as seen by the caller.
func (e *Envelope) State() State {
	return State(e.state.Load())
}

// Counter returns the fade counter in [0, 512].
func (e *Envelope) Counter() int {
	return int(e.counter.Load())
}

// TakeCorruptions returns the number of invalid states healed since the
// previous call.
func (e *Envelope) TakeCorruptions() uint32 {
	return e.corruptions.Swap(0)
}

// Process applies the current gain stage to an interleaved stereo block in
// place. It is called once per buffer from the audio context and never
// blocks. A request arriving mid-block is picked up by the next block.
func (e *Envelope) Process(buf []int16) {
	state := State(e.state.Load())

	switch state {
	case Passthrough:
		return
	case Muted:
		clear(buf)
		return
	case MutingDown, MutingUp:
	default:
		e.state.Store(int32(Passthrough))
		e.corruptions.Add(1)

		return
	}

	count := e.counter.Load()

	for i := 0; i+1 < len(buf); i += 2 {
		switch state {
		case MutingDown:
			buf[i] = core.ScaleQ9(buf[i], count)
			buf[i+1] = core.ScaleQ9(buf[i+1], count)

			count--
			if count == 0 {
				state = Muted
			}
		case MutingUp:
			buf[i] = core.ScaleQ9(buf[i], count)
			buf[i+1] = core.ScaleQ9(buf[i+1], count)

			count++
			if count == core.GainUnity {
				state = Passthrough
				count = 0
			}
		case Muted:
			buf[i] = 0
			buf[i+1] = 0
		}
	}

	// Counter first: a foreground waiter that sees the terminal state must
	// also see the final counter.
	e.counter.Store(count)
	e.state.Store(int32(state))
}

// Request asks for mute (true) or unmute (false) and blocks until the
// envelope rests in the requested state. Mute is only honored from
// Passthrough and unmute only from Muted; any other request is a no-op.
//
// There is no timeout: if the audio context stops calling Process while a
// fade is pending, Request never returns. Use RequestContext to bound it.
func (e *Envelope) Request(enable bool) {
	_ = e.RequestContext(context.Background(), enable)
}

// RequestContext is Request with a bound. When ctx ends first the fade keeps
// running and ctx.Err() is returned.
func (e *Envelope) RequestContext(ctx context.Context, enable bool) error {
	// A fade left behind by an abandoned request must settle before the
	// terminal-state rules can be applied.
	if err := e.await(ctx, func(s State) bool { return s.Terminal() }); err != nil {
		return err
	}

	state := e.State()
	log := e.log.WithFields(logrus.Fields{"state": state, "enable": enable})
	log.Debug("mute: start")

	var target State

	switch {
	case enable && state == Passthrough:
		e.counter.Store(core.GainUnity)
		e.state.Store(int32(MutingDown))
		target = Muted
	case !enable && state == Muted:
		e.counter.Store(0)
		e.state.Store(int32(MutingUp))
		target = Passthrough
	default:
		log.Debug("mute: done")
		return nil
	}

	if err := e.await(ctx, func(s State) bool { return s == target }); err != nil {
		log.WithError(err).Warn("mute: abandoned while fading")
		return err
	}

	log.Debug("mute: done")

	return nil
}

func (e *Envelope) await(ctx context.Context, done func(State) bool) error {
	if done(e.State()) {
		return nil
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done(e.State()) {
				return nil
			}
		}
	}
}

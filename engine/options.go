package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/fx"
	"github.com/emeb/S3GTA/param"
)

type options struct {
	core      []core.Option
	log       logrus.FieldLogger
	mutePoll  time.Duration
	clock     func() int64
	registry  *fx.Registry
	converter param.Converter
}

// Option configures an Engine.
type Option func(*options)

// WithConfig applies sample rate, frame size and arena options.
func WithConfig(opts ...core.Option) Option {
	return func(o *options) {
		o.core = append(o.core, opts...)
	}
}

// WithLogger sets the logger for foreground reports.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMutePoll sets how often blocking mute requests re-check the
// envelope.
func WithMutePoll(d time.Duration) Option {
	return func(o *options) {
		o.mutePoll = d
	}
}

// WithClock replaces the monotonic nanosecond clock used for load timing.
func WithClock(clock func() int64) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithRegistry selects from r instead of the built-in algorithms.
func WithRegistry(r *fx.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithConverter sets the analog front end sampled by the acquirer. The
// default is a set of virtual pots resting at zero.
func WithConverter(c param.Converter) Option {
	return func(o *options) {
		if c != nil {
			o.converter = c
		}
	}
}

func monotonicClock() func() int64 {
	origin := time.Now()

	return func() int64 {
		return int64(time.Since(origin)) + 1
	}
}

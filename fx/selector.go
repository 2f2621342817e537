package fx

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDrainPoll is how often Select re-checks for an audio callback still
// running on a detached instance.
const DefaultDrainPoll = 100 * time.Microsecond

// Muter is the mute control a Selector brackets each switch with. Both
// calls block until the envelope has settled in the requested state.
type Muter interface {
	RequestContext(ctx context.Context, enable bool) error
}

type active struct {
	inst  Instance
	algo  *Algorithm
	index int
}

// Selector owns the active instance and switches it.
//
// The audio path calls Process; everything else is foreground. Select
// follows a fixed order: mute down and wait for Muted, detach the handle
// and wait out any callback still inside the old instance, release it,
// build the new instance from a fresh arena, publish it with one atomic
// store, then mute up. The audio path therefore only ever sees nil or a
// complete instance, and it never hears the transition.
type Selector struct {
	reg   *Registry
	env   Env
	mute  Muter
	log   logrus.FieldLogger
	drain time.Duration

	mu       sync.Mutex
	selected atomic.Pointer[active]

	handle   atomic.Pointer[active]
	inflight atomic.Int32
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSelectorLogger sets the logger used for switch reports.
func WithSelectorLogger(l logrus.FieldLogger) SelectorOption {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDrainPoll sets the detach wait poll interval.
func WithDrainPoll(d time.Duration) SelectorOption {
	return func(s *Selector) {
		if d > 0 {
			s.drain = d
		}
	}
}

// NewSelector creates a selector over reg. A nil env.Arena is replaced by
// an arena sized to the registry.
func NewSelector(reg *Registry, m Muter, env Env, opts ...SelectorOption) *Selector {
	if env.Arena == nil {
		env.Arena = NewArena(reg.ArenaBytes())
	}

	s := &Selector{
		reg:   reg,
		env:   env,
		mute:  m,
		log:   logrus.StandardLogger(),
		drain: DefaultDrainPoll,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Process runs the active instance on one buffer. It reports false, leaving
// dst untouched, when no instance is attached.
func (s *Selector) Process(dst, src []int16) bool {
	s.inflight.Store(1)

	a := s.handle.Load()
	if a == nil {
		s.inflight.Store(0)
		return false
	}

	a.inst.Process(dst, src)
	s.inflight.Store(0)

	return true
}

// Select switches to the algorithm at idx, blocking for both mute fades.
func (s *Selector) Select(idx int) error {
	return s.SelectContext(context.Background(), idx)
}

// SelectContext is Select with a deadline on the waits. An invalid index
// changes nothing. If ctx ends before the old instance is released the
// selection is unchanged, though the output may be left muted.
func (s *Selector) SelectContext(ctx context.Context, idx int) error {
	alg, err := s.reg.At(idx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{"algorithm": alg.Name, "index": idx})

	err = s.mute.RequestContext(ctx, true)
	if err != nil {
		return fmt.Errorf("fx: mute before switch to %s: %w", alg.Name, err)
	}

	prev := s.selected.Load()
	s.handle.Store(nil)

	err = s.awaitIdle(ctx)
	if err != nil {
		s.handle.Store(prev)
		return fmt.Errorf("fx: detach before switch to %s: %w", alg.Name, err)
	}

	if prev != nil {
		prev.inst.Release()
		s.selected.Store(nil)
	}

	s.env.Arena.Reset()

	inst, err := alg.New(s.env)
	if err != nil {
		log.WithError(err).Error("algorithm construction failed, staying muted")
		return fmt.Errorf("fx: construct %s: %w", alg.Name, err)
	}

	a := &active{inst: inst, algo: alg, index: idx}
	s.selected.Store(a)
	s.handle.Store(a)

	log.WithField("arena_used", s.env.Arena.Used()).Debug("algorithm attached")

	err = s.mute.RequestContext(ctx, false)
	if err != nil {
		return fmt.Errorf("fx: unmute after switch to %s: %w", alg.Name, err)
	}

	log.Info("algorithm selected")

	return nil
}

// Close detaches and releases the active instance without muting. Use it
// once the audio path has stopped.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handle.Store(nil)

	if a := s.selected.Swap(nil); a != nil {
		a.inst.Release()
	}
}

func (s *Selector) awaitIdle(ctx context.Context) error {
	if s.inflight.Load() == 0 {
		return nil
	}

	ticker := time.NewTicker(s.drain)
	defer ticker.Stop()

	for s.inflight.Load() != 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// ActiveIndex returns the selection index of the active algorithm, or -1.
func (s *Selector) ActiveIndex() int {
	if a := s.selected.Load(); a != nil {
		return a.index
	}

	return -1
}

// Active returns the descriptor of the active algorithm, or nil.
func (s *Selector) Active() *Algorithm {
	if a := s.selected.Load(); a != nil {
		return a.algo
	}

	return nil
}

// DescribeParameter renders bank slot (1..MaxParams) through the active
// instance. It gives "" when nothing is selected.
func (s *Selector) DescribeParameter(slot int) string {
	if a := s.selected.Load(); a != nil {
		return a.inst.DescribeParameter(slot)
	}

	return ""
}

// Registry returns the algorithms this selector chooses from.
func (s *Selector) Registry() *Registry {
	return s.reg
}

// Package console is a raw-terminal stand-in for the front panel: number
// keys pick the algorithm, letter pairs turn the four pots and m toggles
// the mute.
package console

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emeb/S3GTA/dsp/mute"
	"github.com/emeb/S3GTA/param"
)

const (
	// FineStep and CoarseStep are pot moves for lower and upper case keys.
	FineStep   = 64
	CoarseStep = 512

	actionTimeout = 2 * time.Second
)

// Controller is the engine surface the console drives.
type Controller interface {
	Algorithms() []string
	SelectAlgorithmContext(ctx context.Context, idx int) error
	RequestMuteContext(ctx context.Context, enable bool) error
	MuteState() mute.State
}

// Kind is what a key does.
type Kind int

const (
	None Kind = iota
	Select
	Pot
	ToggleMute
	Save
	Quit
)

// Action is a decoded key.
type Action struct {
	Kind  Kind
	Index int // algorithm or pot
	Delta int
}

var potKeys = [param.NumChannels][2]byte{
	{'q', 'a'},
	{'w', 's'},
	{'e', 'd'},
	{'r', 'f'},
}

// Decode maps a key byte to an action.
func Decode(b byte) Action {
	switch {
	case b >= '1' && b <= '9':
		return Action{Kind: Select, Index: int(b - '1')}
	case b == 'm' || b == 'M':
		return Action{Kind: ToggleMute}
	case b == 'p' || b == 'P':
		return Action{Kind: Save}
	case b == 'x' || b == 'X' || b == 0x03:
		return Action{Kind: Quit}
	}

	for ch, keys := range potKeys {
		switch b {
		case keys[0]:
			return Action{Kind: Pot, Index: ch, Delta: FineStep}
		case keys[1]:
			return Action{Kind: Pot, Index: ch, Delta: -FineStep}
		case keys[0] - 'a' + 'A':
			return Action{Kind: Pot, Index: ch, Delta: CoarseStep}
		case keys[1] - 'a' + 'A':
			return Action{Kind: Pot, Index: ch, Delta: -CoarseStep}
		}
	}

	return Action{}
}

// Console applies key presses.
type Console struct {
	ctl  Controller
	pots *param.VirtualPots
	log  logrus.FieldLogger
	save func() error
}

// New creates a console turning pots and driving ctl. save, if non-nil,
// runs on the p key.
func New(ctl Controller, pots *param.VirtualPots, log logrus.FieldLogger, save func() error) *Console {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Console{ctl: ctl, pots: pots, log: log, save: save}
}

// HandleKey applies one key and reports whether the user asked to quit.
// Select and mute wait for the fade, so call it from a goroutine that may
// block for a few milliseconds.
func (c *Console) HandleKey(b byte) (quit bool) {
	a := Decode(b)

	switch a.Kind {
	case Select:
		if a.Index >= len(c.ctl.Algorithms()) {
			return false
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		err := c.ctl.SelectAlgorithmContext(ctx, a.Index)
		if err != nil {
			c.log.WithError(err).WithField("index", a.Index).Warn("select failed")
		}
	case Pot:
		c.pots.Nudge(a.Index, a.Delta)
	case ToggleMute:
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		st := c.ctl.MuteState()
		enable := st == mute.Passthrough || st == mute.MutingUp

		err := c.ctl.RequestMuteContext(ctx, enable)
		if err != nil {
			c.log.WithError(err).Warn("mute toggle failed")
		}
	case Save:
		if c.save == nil {
			return false
		}

		err := c.save()
		if err != nil {
			c.log.WithError(err).Warn("save failed")
		}
	case Quit:
		return true
	}

	return false
}

// Pots returns the current pot positions.
func (c *Console) Pots() [param.NumChannels]int {
	var v [param.NumChannels]int
	for ch := range v {
		v[ch] = c.pots.Value(ch)
	}

	return v
}

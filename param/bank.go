package param

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/emeb/S3GTA/dsp/core"
)

// NumParams is the number of slots in the bank. Slot MixSlot is reserved for
// the wet/dry mix; algorithms use slots 1..NumParams-1.
const (
	NumParams = 4
	MixSlot   = 0
)

var (
	// ErrInvalidParameter reports a slot index outside the bank.
	ErrInvalidParameter = errors.New("param: invalid parameter index")
	// ErrInvalidChannel reports a channel index outside the channel set.
	ErrInvalidChannel = errors.New("param: invalid channel index")
)

// Bank maps slot indices to 12-bit values.
type Bank struct {
	slots [NumParams]atomic.Int32
}

// Get returns the value of slot i, or 0 for an index outside the bank.
// It is safe on the audio path.
func (b *Bank) Get(i int) int16 {
	if i < 0 || i >= NumParams {
		return 0
	}

	return int16(b.slots[i].Load())
}

// Set is the manual override. The value is clamped to 0..4095.
func (b *Bank) Set(i int, v int16) error {
	if i < 0 || i >= NumParams {
		return fmt.Errorf("%w: %d", ErrInvalidParameter, i)
	}

	b.slots[i].Store(int32(core.ClampParam(int32(v))))

	return nil
}

// Snapshot copies all slots.
func (b *Bank) Snapshot() [NumParams]int16 {
	var out [NumParams]int16
	for i := range out {
		out[i] = int16(b.slots[i].Load())
	}

	return out
}

func (b *Bank) store(i int, v int16) {
	b.slots[i].Store(int32(v))
}

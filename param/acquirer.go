package param

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// NumChannels is the number of sampled control inputs.
const NumChannels = 4

// DefaultTickPeriod is the acquisition timer period.
const DefaultTickPeriod = time.Millisecond

// Unrouted parks a channel: it is still sampled and filtered but writes no
// bank slot.
const Unrouted = -1

type channel struct {
	iir      IIR
	filtered atomic.Int32
	dest     atomic.Int32
}

// Acquirer samples the channels round-robin into a Bank.
type Acquirer struct {
	bank *Bank
	conv Converter

	chans [NumChannels]channel
	// idx is owned by the tick context.
	idx int

	ticks    atomic.Uint64
	overruns atomic.Uint32
}

// NewAcquirer routes channel i to slot i and starts the first conversion.
func NewAcquirer(bank *Bank, conv Converter) *Acquirer {
	a := &Acquirer{bank: bank, conv: conv}
	for i := range a.chans {
		a.chans[i].dest.Store(int32(i))
	}

	conv.StartConversion(0)

	return a
}

// Tick runs one acquisition step. It must only be called from one context
// at a time and never blocks.
func (a *Acquirer) Tick() {
	ch := &a.chans[a.idx]

	filtered := ch.iir.Filter(Reported(a.conv.FetchResult()))
	ch.filtered.Store(int32(filtered))

	// One load: a concurrent remap lands either before or after this tick.
	if dest := ch.dest.Load(); dest != Unrouted {
		a.bank.store(int(dest), filtered)
	}

	a.idx = (a.idx + 1) % NumChannels
	a.conv.StartConversion(a.idx)
	a.ticks.Add(1)
}

// Run calls Tick every period until ctx ends. A tick that takes longer than
// the period is counted as an overrun; missed ticks are skipped, not queued.
func (a *Acquirer) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultTickPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			a.Tick()

			if time.Since(start) > period {
				a.overruns.Add(1)
			}
		}
	}
}

// SetDestination routes channel ch to slot, or parks it with Unrouted. The
// previous slot keeps its last written value. The remap is a single atomic
// store and takes effect no later than the channel's next tick.
func (a *Acquirer) SetDestination(ch, slot int) error {
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}

	if slot != Unrouted && (slot < 0 || slot >= NumParams) {
		return fmt.Errorf("%w: %d", ErrInvalidParameter, slot)
	}

	a.chans[ch].dest.Store(int32(slot))

	return nil
}

// Destination returns the slot channel ch is routed to. Parked channels
// and out-of-range ch report Unrouted.
func (a *Acquirer) Destination(ch int) int {
	if ch < 0 || ch >= NumChannels {
		return Unrouted
	}

	return int(a.chans[ch].dest.Load())
}

// Filtered returns the smoothed reading of channel ch regardless of its
// routing.
func (a *Acquirer) Filtered(ch int) int16 {
	if ch < 0 || ch >= NumChannels {
		return 0
	}

	return int16(a.chans[ch].filtered.Load())
}

// Ticks returns the number of completed ticks.
func (a *Acquirer) Ticks() uint64 {
	return a.ticks.Load()
}

// TakeOverruns returns the overrun count since the previous call.
func (a *Acquirer) TakeOverruns() uint32 {
	return a.overruns.Swap(0)
}

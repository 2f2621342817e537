package param

import "sync/atomic"

// RawMax is the full-scale raw conversion code.
const RawMax = 4095

// Converter is the raw conversion port of the peripheral layer. Conversions
// are pipelined: StartConversion begins sampling a channel and FetchResult,
// called a tick later, returns that conversion's raw code. FetchResult must
// never wait; if the conversion is not done it returns the last result.
type Converter interface {
	StartConversion(ch int)
	FetchResult() uint16
}

// Reported converts a raw code to the reported polarity, 4095 - raw.
func Reported(raw uint16) int16 {
	return int16(RawMax - int32(raw&RawMax))
}

// VirtualPots is a Converter backed by settable values, standing in for the
// potentiometers on a desktop host. Values are set in reported polarity.
type VirtualPots struct {
	values  [NumChannels]atomic.Int32
	current atomic.Int32
}

// NewVirtualPots returns pots resting at the given reported values. Missing
// values default to zero.
func NewVirtualPots(initial ...int16) *VirtualPots {
	p := &VirtualPots{}
	for i := 0; i < NumChannels && i < len(initial); i++ {
		p.Set(i, initial[i])
	}

	return p
}

// Set moves pot ch to a reported value in 0..4095.
func (p *VirtualPots) Set(ch int, v int16) {
	if ch < 0 || ch >= NumChannels {
		return
	}

	if v < 0 {
		v = 0
	} else if v > RawMax {
		v = RawMax
	}

	p.values[ch].Store(RawMax - int32(v))
}

// Nudge moves pot ch by delta and returns the new reported value.
func (p *VirtualPots) Nudge(ch int, delta int) int16 {
	v := p.Value(ch) + delta
	p.Set(ch, int16(max(0, min(RawMax, v))))

	return int16(p.Value(ch))
}

// Value returns the reported value of pot ch.
func (p *VirtualPots) Value(ch int) int {
	if ch < 0 || ch >= NumChannels {
		return 0
	}

	return RawMax - int(p.values[ch].Load())
}

// StartConversion latches the addressed channel.
func (p *VirtualPots) StartConversion(ch int) {
	p.current.Store(int32(ch))
}

// FetchResult returns the raw code of the latched channel.
func (p *VirtualPots) FetchResult() uint16 {
	ch := p.current.Load()
	if ch < 0 || ch >= NumChannels {
		return RawMax
	}

	return uint16(p.values[ch].Load())
}

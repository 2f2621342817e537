package meter

import (
	"sync/atomic"

	"github.com/emeb/S3GTA/dsp/core"
)

// Channel identifies one of the four metered signals.
type Channel int

// Metered signals. Channel 0 of a frame is the even interleaved index.
const (
	In0 Channel = iota
	In1
	Out0
	Out1

	NumChannels = 4
)

func (c Channel) String() string {
	switch c & 3 {
	case In0:
		return "in0"
	case In1:
		return "in1"
	case Out0:
		return "out0"
	default:
		return "out1"
	}
}

// Meter holds the peak accumulators.
type Meter struct {
	levels [NumChannels]atomic.Int32
}

// Update rectifies sample and raises the channel peak if it is exceeded.
// The channel index is masked to the four legal values.
func (m *Meter) Update(ch Channel, sample int16) {
	a := int32(core.Abs16(sample))

	level := &m.levels[ch&3]
	if level.Load() < a {
		level.Store(a)
	}
}

// UpdateInterleaved feeds a stereo interleaved block, even samples to left
// and odd samples to right.
func (m *Meter) UpdateInterleaved(left, right Channel, buf []int16) {
	lp := &m.levels[left&3]
	rp := &m.levels[right&3]

	l, r := lp.Load(), rp.Load()
	peakL, peakR := l, r

	for i := 0; i+1 < len(buf); i += 2 {
		if a := int32(core.Abs16(buf[i])); a > peakL {
			peakL = a
		}

		if a := int32(core.Abs16(buf[i+1])); a > peakR {
			peakR = a
		}
	}

	if peakL > l {
		lp.Store(peakL)
	}

	if peakR > r {
		rp.Store(peakR)
	}
}

// ReadAndClear returns the held peak and resets it to zero.
func (m *Meter) ReadAndClear(ch Channel) int16 {
	return int16(m.levels[ch&3].Swap(0))
}

// Peek returns the held peak without draining it.
func (m *Meter) Peek(ch Channel) int16 {
	return int16(m.levels[ch&3].Load())
}

// Percent scales a peak to a 0..99 bar length, 328 counts per step.
func Percent(level int16) int {
	if level < 0 {
		return 0
	}

	return int(level) / 328
}

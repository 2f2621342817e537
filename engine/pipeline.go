package engine

import (
	"sync/atomic"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/meter"
	"github.com/emeb/S3GTA/dsp/mute"
	"github.com/emeb/S3GTA/fx"
	"github.com/emeb/S3GTA/param"
)

// Pipeline is the buffer-ready callback: input metering, effect dispatch,
// wet/dry mix, soft-mute and output metering, with timing for the load
// display.
type Pipeline struct {
	meter *meter.Meter
	mute  *mute.Envelope
	bank  *param.Bank
	sel   *fx.Selector

	wet    []int16
	clock  func() int64
	period int64

	load     loadCells
	overruns atomic.Uint32
	tap      outputTap
}

// NewPipeline creates a pipeline whose wet scratch holds frameSize frames.
// period is the buffer period in nanoseconds; a callback running longer
// counts as an overrun.
func NewPipeline(m *meter.Meter, env *mute.Envelope, bank *param.Bank, sel *fx.Selector,
	frameSize int, period int64, clock func() int64,
) *Pipeline {
	return &Pipeline{
		meter:  m,
		mute:   env,
		bank:   bank,
		sel:    sel,
		wet:    make([]int16, 2*max(frameSize, 1)),
		clock:  clock,
		period: period,
	}
}

// Process runs one buffer. dst and src hold interleaved stereo and should
// be the same even length; otherwise the whole frames they share are
// processed and the rest of dst is zeroed. dst may alias src.
//
// Buffers longer than the wet scratch are dispatched to the algorithm in
// scratch-sized pieces.
func (p *Pipeline) Process(dst, src []int16) {
	start := p.clock()
	p.load.begin(start)

	n := min(len(dst), len(src)) &^ 1
	in, out := src[:n], dst[:n]

	p.meter.UpdateInterleaved(meter.In0, meter.In1, in)

	mix := int32(p.bank.Get(param.MixSlot))

	for off := 0; off < n; off += len(p.wet) {
		end := min(off+len(p.wet), n)
		p.mixChunk(out[off:end], in[off:end], mix)
	}

	p.mute.Process(out)
	p.meter.UpdateInterleaved(meter.Out0, meter.Out1, out)
	clear(dst[n:])
	p.tap.capture(out)

	end := p.clock()
	p.load.finish(end)

	if p.period > 0 && end-start > p.period {
		p.overruns.Add(1)
	}
}

// mixChunk blends the algorithm output with the input. The algorithm runs
// even when fully dry so its state keeps up with the input. The two ends of
// the mix range are exact copies so that full wet and full dry are bit
// transparent.
func (p *Pipeline) mixChunk(out, in []int16, mix int32) {
	wet := p.wet[:len(in)]
	if !p.sel.Process(wet, in) {
		copy(wet, in)
	}

	switch {
	case mix <= 0:
		copy(out, in)
		return
	case mix >= core.MixFull:
		copy(out, wet)
		return
	}

	for i := range out {
		out[i] = core.Blend(wet[i], in[i], mix)
	}
}

// LoadSample returns the last published timestamps.
func (p *Pipeline) LoadSample() LoadSample {
	return p.load.read()
}

// Load returns the last callback period and duration.
func (p *Pipeline) Load() Load {
	return p.load.read().load()
}

// Overruns returns how many callbacks have exceeded the buffer period.
func (p *Pipeline) Overruns() uint32 {
	return p.overruns.Load()
}

// Tap copies recent output frames into dst and returns the sample count.
func (p *Pipeline) Tap(dst []int16) int {
	return p.tap.copyTo(dst)
}

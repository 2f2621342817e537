package algo

import (
	"fmt"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/delay"
	"github.com/emeb/S3GTA/fx"
)

// DelayMemSize is the arena share of the delay line. It leaves 1 KiB of
// the default arena spare.
const DelayMemSize = 128 * 1024

const (
	slotTime     = 1
	slotFeedback = 2
	slotLevel    = 3

	// glideShift sets how fast the read tap follows a new delay time, in
	// frames: roughly 1<<glideShift frames to settle.
	glideShift = 10
)

// Delay is a stereo feedback echo. The delay time glides toward the knob
// value so sweeping it bends pitch instead of clicking.
var Delay = fx.Algorithm{
	Name:       "Delay",
	ParamNames: []string{"Time", "Feedbk", "Level"},
	MemSize:    DelayMemSize,
	New:        newEcho,
}

type echo struct {
	params     fx.Params
	sampleRate float64
	line       *delay.Line
	tap        int64 // current delay in frames, Q16
}

func newEcho(env fx.Env) (fx.Instance, error) {
	mem, err := env.Arena.Bytes(DelayMemSize)
	if err != nil {
		return nil, err
	}

	line, err := delay.New(mem)
	if err != nil {
		return nil, err
	}

	e := &echo{params: env.Params, sampleRate: sampleRate(env), line: line}
	e.tap = int64(e.frames(e.params.Get(slotTime))) << delay.FracBits

	return e, nil
}

// frames maps the time knob onto 1..Frames-1.
func (e *echo) frames(p int16) int {
	span := e.line.Frames() - 2
	return 1 + int(core.ClampParam(int32(p)))*span/core.ParamMax
}

func (e *echo) Process(dst, src []int16) {
	target := int64(e.frames(e.params.Get(slotTime))) << delay.FracBits
	fb := int32(e.params.Get(slotFeedback)) * 7 >> 3
	level := int32(e.params.Get(slotLevel))

	frames := min(len(dst), len(src)) / 2
	for i := 0; i < frames; i++ {
		e.tap += (target - e.tap) >> glideShift

		dl, dr := e.line.ReadFrac(int32(e.tap))
		l, r := src[2*i], src[2*i+1]

		e.line.Write(
			core.Saturate16(int32(l)+(int32(dl)*fb)>>core.MixBits),
			core.Saturate16(int32(r)+(int32(dr)*fb)>>core.MixBits),
		)

		dst[2*i] = core.Saturate16(int32(l) + (int32(dl)*level)>>core.MixBits)
		dst[2*i+1] = core.Saturate16(int32(r) + (int32(dr)*level)>>core.MixBits)
	}
}

func (e *echo) DescribeParameter(slot int) string {
	switch slot {
	case slotTime:
		ms := e.frames(e.params.Get(slotTime)) * 1000 / int(e.sampleRate)
		return fmt.Sprintf("%3d ms", ms)
	case slotFeedback, slotLevel:
		return percent(e.params.Get(slot))
	default:
		return ""
	}
}

func (e *echo) Release() {}

package algo

import (
	"fmt"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/delay"
	"github.com/emeb/S3GTA/fx"
)

// ChorusMemSize holds a little over 40 ms of stereo at 48 kHz.
const ChorusMemSize = 8 * 1024

const (
	slotRate  = 1
	slotDepth = 2

	chorusBaseMs  = 5
	chorusDepthMs = 15

	minRateHz = 0.1
	maxRateHz = 5.0

	quadrature = 1 << 30
)

// Chorus is a modulated short delay. The LFO is a fixed-point triangle and
// the right channel runs a quarter cycle ahead of the left.
var Chorus = fx.Algorithm{
	Name:       "Chorus",
	ParamNames: []string{"Rate", "Depth", "Level"},
	MemSize:    ChorusMemSize,
	New:        newChorus,
}

type chorus struct {
	params     fx.Params
	sampleRate float64
	line       *delay.Line

	phase    uint32
	rate     int16
	inc      uint32
	base     int32 // frames
	maxDepth int32 // frames
}

func newChorus(env fx.Env) (fx.Instance, error) {
	mem, err := env.Arena.Bytes(ChorusMemSize)
	if err != nil {
		return nil, err
	}

	line, err := delay.New(mem)
	if err != nil {
		return nil, err
	}

	c := &chorus{params: env.Params, sampleRate: sampleRate(env), line: line}
	c.base = int32(c.sampleRate * chorusBaseMs / 1000)
	c.maxDepth = max(0, min(int32(c.sampleRate*chorusDepthMs/1000), int32(line.Frames())-c.base-2))
	c.setRate(c.params.Get(slotRate))

	return c, nil
}

// RateHz maps the rate knob linearly onto 0.1..5 Hz.
func RateHz(p int16) float64 {
	return minRateHz + (maxRateHz-minRateHz)*float64(core.ClampParam(int32(p)))/core.ParamMax
}

func (c *chorus) setRate(p int16) {
	c.rate = p
	c.inc = uint32(RateHz(p) * (1 << 32) / c.sampleRate)
}

// triangle maps a phase onto 0..65535.
func triangle(phase uint32) int32 {
	t := int32(phase >> 15) // 0..131071
	if t > 65535 {
		t = 131071 - t
	}

	return t
}

func (c *chorus) Process(dst, src []int16) {
	if p := c.params.Get(slotRate); p != c.rate {
		c.setRate(p)
	}

	depth := c.maxDepth * int32(c.params.Get(slotDepth)) / core.ParamMax
	level := int32(c.params.Get(slotLevel))
	base := c.base << delay.FracBits

	frames := min(len(dst), len(src)) / 2
	for i := 0; i < frames; i++ {
		l, r := src[2*i], src[2*i+1]
		c.line.Write(l, r)

		ml, _ := c.line.ReadFrac(base + depth*triangle(c.phase))
		_, mr := c.line.ReadFrac(base + depth*triangle(c.phase+quadrature))
		c.phase += c.inc

		dst[2*i] = core.Saturate16(int32(l) + (int32(ml)*level)>>core.MixBits)
		dst[2*i+1] = core.Saturate16(int32(r) + (int32(mr)*level)>>core.MixBits)
	}
}

func (c *chorus) DescribeParameter(slot int) string {
	switch slot {
	case slotRate:
		return fmt.Sprintf("%3.1f Hz", RateHz(c.params.Get(slotRate)))
	case slotDepth, slotLevel:
		return percent(c.params.Get(slot))
	default:
		return ""
	}
}

func (c *chorus) Release() {}

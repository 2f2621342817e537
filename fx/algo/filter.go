package algo

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/filter/biquad"
	"github.com/emeb/S3GTA/dsp/filter/design"
	"github.com/emeb/S3GTA/fx"
)

// FilterKind selects the response of a filter algorithm.
type FilterKind int

const (
	LowPass FilterKind = iota
	HighPass
	BandPass
)

func (k FilterKind) String() string {
	switch k {
	case LowPass:
		return "LPF"
	case HighPass:
		return "HPF"
	case BandPass:
		return "BPF"
	default:
		return fmt.Sprintf("FilterKind(%d)", int(k))
	}
}

const (
	slotCutoff    = 1
	slotResonance = 2

	minCutoffHz = 20.0
	maxCutoff   = 0.45 // of the sample rate

	minQ = 0.5
	maxQ = 10.0
)

var filterParamNames = []string{"Cutoff", "Resnnc"}

// Filter returns the descriptor of a fourth-order filter algorithm.
// MemSize is 0: the instance and its float scratch are Go heap allocations
// made by New at selection time on the foreground goroutine, never in the
// audio callback.
func Filter(kind FilterKind) fx.Algorithm {
	return fx.Algorithm{
		Name:       kind.String(),
		ParamNames: filterParamNames,
		New: func(env fx.Env) (fx.Instance, error) {
			return newFilter(kind, env), nil
		},
	}
}

// CutoffQ15 applies the cubic knob taper to a 12-bit cutoff parameter.
// The result is the cutoff as a Q15 fraction of Nyquist.
func CutoffQ15(p int16) int32 {
	fc := int32(p) << 3
	return (((fc * fc) >> 15) * fc) >> 15
}

// CutoffHz converts a Q15 cutoff to Hz.
func CutoffHz(fcQ15 int32, sampleRate float64) float64 {
	return sampleRate / 2 * float64(fcQ15) / 32768
}

// ResonanceQ maps a 12-bit resonance parameter onto the overall Q of the
// cascade.
func ResonanceQ(p int16) float64 {
	return minQ + (maxQ-minQ)*float64(core.ClampParam(int32(p)))/core.ParamMax
}

type filter struct {
	kind       FilterKind
	params     fx.Params
	sampleRate float64

	chains  [2]biquad.Chain
	scratch []float64
	gain    float64

	cutoff, resonance int16
	tuned             bool
}

func newFilter(kind FilterKind, env fx.Env) *filter {
	frames := env.FrameSize
	if frames <= 0 {
		frames = core.DefaultFrameSize
	}

	f := &filter{
		kind:       kind,
		params:     env.Params,
		sampleRate: sampleRate(env),
		scratch:    make([]float64, 2*frames),
	}
	f.retune(f.params.Get(slotCutoff), f.params.Get(slotResonance))

	return f
}

// retune designs two identical sections per channel. Each section gets
// sqrt(Q) so the cascade peaks near Q, and the output gain brings that peak
// back to unity.
func (f *filter) retune(cutoff, resonance int16) {
	hz := core.Clamp(CutoffHz(CutoffQ15(cutoff), f.sampleRate), minCutoffHz, maxCutoff*f.sampleRate)
	q := ResonanceQ(resonance)
	sq := math.Sqrt(q)

	var c biquad.Coefficients

	switch f.kind {
	case HighPass:
		c = design.Highpass(hz, sq, f.sampleRate)
		f.gain = 1 / max(q, 1)
	case BandPass:
		c = design.Bandpass(hz, sq, f.sampleRate)
		f.gain = 1 / q
	default:
		c = design.Lowpass(hz, sq, f.sampleRate)
		f.gain = 1 / max(q, 1)
	}

	for ch := range f.chains {
		f.chains[ch].UpdateCoefficients(c, c)
	}

	f.cutoff, f.resonance, f.tuned = cutoff, resonance, true
}

func (f *filter) Process(dst, src []int16) {
	cutoff, resonance := f.params.Get(slotCutoff), f.params.Get(slotResonance)
	if !f.tuned || cutoff != f.cutoff || resonance != f.resonance {
		f.retune(cutoff, resonance)
	}

	n := min(len(dst), len(src)) &^ 1

	for off := 0; off < n; off += len(f.scratch) {
		buf := f.scratch[:min(len(f.scratch), n-off)]

		for i := range buf {
			buf[i] = float64(src[off+i])
		}

		for ch := range f.chains {
			f.chains[ch].ProcessStrided(buf, ch, 2)
		}

		vecmath.ScaleBlock(buf, buf, f.gain)

		for i, v := range buf {
			dst[off+i] = core.SaturateFloat16(v)
		}
	}
}

func (f *filter) DescribeParameter(slot int) string {
	switch slot {
	case slotCutoff:
		khz := CutoffHz(CutoffQ15(f.params.Get(slotCutoff)), f.sampleRate) / 1000
		return fmt.Sprintf("%4.2f kHz", khz)
	case slotResonance:
		return percent(f.params.Get(slotResonance))
	default:
		return ""
	}
}

func (f *filter) Release() {
	for ch := range f.chains {
		f.chains[ch].Reset()
	}
}

// percent renders a 12-bit parameter as 0..99%.
func percent(p int16) string {
	return fmt.Sprintf("%2d%%", p/41)
}

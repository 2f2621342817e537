package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// FloorDB is the level reported for bins with no energy.
const FloorDB = -130.0

var errSize = errors.New("spectrum: size must be a power of two >= 8")

// Analyzer computes a Hann-windowed magnitude spectrum of one channel of an
// interleaved int16 block. All scratch is allocated up front, so Analyze
// does not allocate. Not safe for concurrent use.
type Analyzer struct {
	size    int
	plan    *algofft.Plan[complex128]
	win     []float64
	winGain float64

	frame   []float64
	in, out []complex128
	re, im  []float64
	mag     []float64
}

// NewAnalyzer creates an analyzer of size points.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 8 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", errSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum init fft plan: %w", err)
	}

	a := &Analyzer{
		size:  size,
		plan:  plan,
		win:   make([]float64, size),
		frame: make([]float64, size),
		in:    make([]complex128, size),
		out:   make([]complex128, size),
		re:    make([]float64, size/2+1),
		im:    make([]float64, size/2+1),
		mag:   make([]float64, size/2+1),
	}

	sum := 0.0
	for i := range a.win {
		a.win[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
		sum += a.win[i]
	}

	a.winGain = sum / float64(size)

	return a, nil
}

// Size returns the FFT length.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of non-negative frequency bins, Size/2+1.
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

// BinHz returns the center frequency of bin k.
func (a *Analyzer) BinHz(k int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(a.size)
}

// Analyze reads channel ch (0 or 1) of the interleaved block, zero padding
// or truncating to Size frames, and writes Bins() levels in dBFS to dst. A
// full-scale sine centered on a bin reads close to 0 dB.
func (a *Analyzer) Analyze(dst []float64, interleaved []int16, ch int) error {
	if len(dst) < a.Bins() {
		return fmt.Errorf("spectrum: dst holds %d bins, need %d", len(dst), a.Bins())
	}

	clear(a.frame)

	for i := 0; i < a.size && 2*i+ch < len(interleaved); i++ {
		a.frame[i] = float64(interleaved[2*i+ch]) / 32768
	}

	vecmath.MulBlockInPlace(a.frame, a.win)

	for i, x := range a.frame {
		a.in[i] = complex(x, 0)
	}

	err := a.plan.Forward(a.out, a.in)
	if err != nil {
		return fmt.Errorf("spectrum fft: %w", err)
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}

	vecmath.Magnitude(a.mag, a.re, a.im)

	norm := 2 / (float64(a.size) * a.winGain)
	for k, m := range a.mag {
		dst[k] = max(FloorDB, 20*math.Log10(m*norm))
	}

	return nil
}

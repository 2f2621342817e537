package testutil

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// BandEnergy returns the mean-square energy of channel ch between lo and hi
// Hz (hi exclusive). The channel is zero padded to the next power of two
// and transformed in one FFT. Summing all bins gives the mean square of the
// channel in full-scale units (Parseval).
func BandEnergy(interleaved []int16, ch int, sampleRate, lo, hi float64) (float64, error) {
	frames := len(interleaved) / 2
	if frames == 0 {
		return 0, nil
	}

	n := 1
	for n < frames {
		n <<= 1
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0, fmt.Errorf("band energy plan: %w", err)
	}

	in := make([]complex128, n)
	for i := 0; i < frames; i++ {
		in[i] = complex(float64(interleaved[2*i+ch])/32768, 0)
	}

	out := make([]complex128, n)

	err = plan.Forward(out, in)
	if err != nil {
		return 0, fmt.Errorf("band energy fft: %w", err)
	}

	binHz := sampleRate / float64(n)
	energy := 0.0

	for k, c := range out {
		f := float64(k) * binHz
		if k > n/2 {
			f = float64(n-k) * binHz
		}

		if f >= lo && f < hi {
			energy += real(c)*real(c) + imag(c)*imag(c)
		}
	}

	return energy / (float64(n) * float64(frames)), nil
}

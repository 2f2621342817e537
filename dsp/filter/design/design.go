package design

import (
	"math"
	"math/cmplx"

	"github.com/emeb/S3GTA/dsp/filter/biquad"
)

// ButterworthQ is the quality factor of a maximally flat second-order
// section. A non-positive or non-finite q falls back to it.
const ButterworthQ = 1 / math.Sqrt2

type response int

const (
	lowpass response = iota
	highpass
	bandpass
)

// Lowpass designs a second-order lowpass at freq Hz.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	return cookbook(lowpass, freq, q, sampleRate)
}

// Highpass designs a second-order highpass at freq Hz.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	return cookbook(highpass, freq, q, sampleRate)
}

// Bandpass designs a constant-skirt bandpass centered on freq Hz. Its peak
// gain is q.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	return cookbook(bandpass, freq, q, sampleRate)
}

// cookbook evaluates the bilinear-transform formulas from the Audio EQ
// Cookbook. An out-of-range frequency yields the zero section, which
// silences rather than blowing up.
func cookbook(r response, freq, q, sampleRate float64) biquad.Coefficients {
	if !finite(sampleRate) || sampleRate <= 0 || !finite(freq) || freq <= 0 || freq >= sampleRate/2 {
		return biquad.Coefficients{}
	}

	if !finite(q) || q <= 0 {
		q = ButterworthQ
	}

	sin, cos := math.Sincos(2 * math.Pi * freq / sampleRate)
	alpha := sin / (2 * q)
	a0 := 1 + alpha

	var b0, b1, b2 float64

	switch r {
	case lowpass:
		b1 = 1 - cos
		b0, b2 = b1/2, b1/2
	case highpass:
		b1 = -(1 + cos)
		b0, b2 = -b1/2, -b1/2
	case bandpass:
		b0, b2 = sin/2, -sin/2
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: -2 * cos / a0,
		A2: (1 - alpha) / a0,
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Magnitude evaluates |H| of c at freq Hz.
func Magnitude(c biquad.Coefficients, freq, sampleRate float64) float64 {
	z1 := cmplx.Rect(1, -2*math.Pi*freq/sampleRate)
	z2 := z1 * z1

	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2

	return cmplx.Abs(num / den)
}

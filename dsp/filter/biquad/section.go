package biquad

import "github.com/emeb/S3GTA/dsp/core"

// Coefficients of one second-order section, a0 normalized to 1:
//
//	H(z) = (B0 + B1 z^-1 + B2 z^-2) / (1 + A1 z^-1 + A2 z^-2)
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Section runs Coefficients in transposed direct form II.
type Section struct {
	Coefficients

	z1, z2 float64
}

// NewSection returns a section at rest.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// SetCoefficients retunes without touching the state, so a swept
// parameter does not click.
func (s *Section) SetCoefficients(c Coefficients) {
	s.Coefficients = c
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.z1
	s.z1 = s.B1*x - s.A1*y + s.z2
	s.z2 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters buf in place.
func (s *Section) ProcessBlock(buf []float64) {
	s.ProcessStrided(buf, 0, 1)
}

// ProcessStrided filters buf[first], buf[first+stride], ... in place and
// leaves the other samples alone. With stride 2 it runs one channel of an
// interleaved stereo block. State that decays below the denormal range is
// flushed to zero at the end so silent input stays cheap.
func (s *Section) ProcessStrided(buf []float64, first, stride int) {
	if stride < 1 || first < 0 {
		return
	}

	c := s.Coefficients
	z1, z2 := s.z1, s.z2

	for i := first; i < len(buf); i += stride {
		x := buf[i]
		y := c.B0*x + z1
		z1 = c.B1*x - c.A1*y + z2
		z2 = c.B2*x - c.A2*y
		buf[i] = y
	}

	s.z1, s.z2 = core.FlushDenormals(z1), core.FlushDenormals(z2)
}

// Reset zeroes the state.
func (s *Section) Reset() {
	s.z1, s.z2 = 0, 0
}

// State returns the two state variables.
func (s *Section) State() [2]float64 {
	return [2]float64{s.z1, s.z2}
}

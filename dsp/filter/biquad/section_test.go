package biquad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-12

func TestSectionImpulseTrace(t *testing.T) {
	// B0=0.25 B1=0.5 B2=0.25 A1=-0.2 A2=0.04, impulse in:
	// y0 = 0.25, d = (0.55, 0.24)
	// y1 = 0.55, d = (0.35, -0.022)
	// y2 = 0.35, d = (0.048, -0.014)
	// y3 = 0.048
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04})

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		x := 0.0
		if i == 0 {
			x = 1
		}

		assert.InDelta(t, w, s.ProcessSample(x), eps, "sample %d", i)
	}
}

func TestProcessBlockMatchesSample(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.3, B2: 0.1, A1: -0.4, A2: 0.1}

	for _, n := range []int{0, 1, 2, 7, 64} {
		block := make([]float64, n)
		for i := range block {
			block[i] = math.Sin(float64(i) * 0.37)
		}

		ref := NewSection(c)
		want := make([]float64, n)
		for i, x := range block {
			want[i] = ref.ProcessSample(x)
		}

		s := NewSection(c)
		s.ProcessBlock(block)

		for i := range want {
			assert.InDelta(t, want[i], block[i], eps, "n=%d sample %d", n, i)
		}

		assert.InDelta(t, ref.State()[0], s.State()[0], eps)
		assert.InDelta(t, ref.State()[1], s.State()[1], eps)
	}
}

func TestPureDelay(t *testing.T) {
	s := NewSection(Coefficients{B2: 1})
	buf := []float64{1, 2, 3, 4, 5}
	s.ProcessBlock(buf)

	assert.Equal(t, []float64{0, 0, 1, 2, 3}, buf)
}

func TestSetCoefficientsKeepsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1})
	s.ProcessSample(1)
	before := s.State()

	s.SetCoefficients(Coefficients{B0: 0.5})
	assert.Equal(t, before, s.State())
	assert.InDelta(t, 1.0, s.ProcessSample(0), eps)
}

func TestResetClearsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1, A1: -0.5})
	s.ProcessSample(1)
	require.NotEqual(t, [2]float64{}, s.State())

	s.Reset()
	assert.Equal(t, [2]float64{}, s.State())
}

func TestDenormalsFlushed(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, A1: -0.999999})
	buf := []float64{1e-300}
	s.ProcessBlock(buf)

	assert.Zero(t, s.State()[0])
}

func TestStableDecay(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, A1: -1.8, A2: 0.81})
	buf := make([]float64, 4096)
	buf[0] = 1
	s.ProcessBlock(buf)

	assert.Less(t, math.Abs(buf[len(buf)-1]), 1e-6)
}

func TestChain(t *testing.T) {
	tests := []struct {
		name     string
		coeffs   []Coefficients
		sections int
	}{
		{"empty", nil, 0},
		{"single", []Coefficients{{B0: 0.5}}, 1},
		{"pair", []Coefficients{{B0: 0.5}, {B0: 0.5}}, 2},
		{"capped", make([]Coefficients, MaxSections+2), MaxSections},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.coeffs...)
			assert.Equal(t, tt.sections, c.NumSections())
			assert.Equal(t, 2*tt.sections, c.Order())
		})
	}
}

func TestChainCascadesInOrder(t *testing.T) {
	c := NewChain(Coefficients{B0: 0.5}, Coefficients{B1: 1})

	buf := []float64{2, 4, 0}
	c.ProcessBlock(buf)
	assert.Equal(t, []float64{0, 1, 2}, buf)

	c.Reset()
	assert.InDelta(t, 0.0, c.ProcessSample(2), eps)
	assert.InDelta(t, 1.0, c.ProcessSample(0), eps)
}

func TestChainGrowResetsNewSections(t *testing.T) {
	c := NewChain(Coefficients{B0: 1})
	c.UpdateCoefficients(Coefficients{B0: 1, B1: 1}, Coefficients{B0: 1, B1: 1})
	c.ProcessSample(1)
	c.UpdateCoefficients(Coefficients{B0: 1})
	c.UpdateCoefficients(Coefficients{B0: 1}, Coefficients{B0: 1})

	assert.Equal(t, [2]float64{}, c.sections[1].State())
}

func TestProcessStridedRunsOneChannel(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.3, B2: 0.1, A1: -0.4, A2: 0.1}

	mono := []float64{1, -0.5, 0.25, 0, 0.75}
	stereo := make([]float64, 2*len(mono))
	for i, x := range mono {
		stereo[2*i+1] = x
		stereo[2*i] = 9
	}

	NewSection(c).ProcessBlock(mono)
	NewChain(c).ProcessStrided(stereo, 1, 2)

	for i := range mono {
		assert.InDelta(t, mono[i], stereo[2*i+1], eps, "frame %d", i)
		assert.Equal(t, 9.0, stereo[2*i], "other channel untouched")
	}

	s := NewSection(c)
	s.ProcessStrided(stereo, 0, 0)
	assert.Equal(t, [2]float64{}, s.State(), "invalid stride is a no-op")
}

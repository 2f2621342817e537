package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sr = 48000.0

func stereoSine(freq, amp float64, frames int) []int16 {
	out := make([]int16, 2*frames)
	for i := 0; i < frames; i++ {
		v := int16(amp * 32767 * math.Sin(2*math.Pi*freq*float64(i)/sr))
		out[2*i] = v
		out[2*i+1] = v / 4
	}

	return out
}

func TestNewAnalyzerValidation(t *testing.T) {
	for _, n := range []int{0, 4, 100} {
		_, err := NewAnalyzer(n)
		assert.Error(t, err, "size %d", n)
	}
}

func TestAnalyzerFindsTone(t *testing.T) {
	a, err := NewAnalyzer(1024)
	require.NoError(t, err)

	bin := 64
	freq := a.BinHz(bin, sr)
	block := stereoSine(freq, 0.5, 1024)

	dst := make([]float64, a.Bins())
	require.NoError(t, a.Analyze(dst, block, 0))

	peak := 0
	for k := range dst {
		if dst[k] > dst[peak] {
			peak = k
		}
	}

	assert.Equal(t, bin, peak)
	assert.InDelta(t, 20*math.Log10(0.5), dst[bin], 0.5)
	assert.Less(t, dst[bin+20], -60.0)

	require.NoError(t, a.Analyze(dst, block, 1))
	assert.InDelta(t, 20*math.Log10(0.125), dst[bin], 0.5)
}

func TestAnalyzerSilenceAndShortInput(t *testing.T) {
	a, err := NewAnalyzer(64)
	require.NoError(t, err)

	dst := make([]float64, a.Bins())
	require.NoError(t, a.Analyze(dst, make([]int16, 10), 0))

	for _, v := range dst {
		assert.Equal(t, FloorDB, v)
	}

	assert.Error(t, a.Analyze(dst[:3], nil, 0))
}

func TestToneLevel(t *testing.T) {
	block := stereoSine(1000, 0.5, 4800)

	assert.InDelta(t, 0.5, ToneLevel(block, 0, 1000, sr), 0.01)
	assert.InDelta(t, 0.125, ToneLevel(block, 1, 1000, sr), 0.01)
	assert.Less(t, ToneLevel(block, 0, 5000, sr), 0.01)
	assert.Zero(t, ToneLevel(nil, 0, 1000, sr))
}

// Package testutil holds deterministic int16 test signals and measurement
// helpers shared by package tests.
package testutil

import (
	"math"
	"math/rand"
)

// StereoSine generates frames of an interleaved stereo sine with the same
// signal on both channels. amplitude is relative to full scale.
func StereoSine(freqHz, sampleRate, amplitude float64, frames int) []int16 {
	out := make([]int16, 2*frames)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := 0; i < frames; i++ {
		v := int16(math.Round(amplitude * 32767 * math.Sin(step*float64(i))))
		out[2*i] = v
		out[2*i+1] = v
	}

	return out
}

// StereoNoise generates white noise with a fixed seed, independent per
// channel.
func StereoNoise(seed int64, amplitude float64, frames int) []int16 {
	out := make([]int16, 2*frames)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = int16((rng.Float64()*2 - 1) * amplitude * 32767)
	}

	return out
}

// StereoDC generates a constant frame repeated frames times.
func StereoDC(left, right int16, frames int) []int16 {
	out := make([]int16, 2*frames)
	for i := 0; i < frames; i++ {
		out[2*i] = left
		out[2*i+1] = right
	}

	return out
}

// Impulse places value on both channels of frame pos.
func Impulse(frames, pos int, value int16) []int16 {
	out := make([]int16, 2*frames)
	if pos >= 0 && pos < frames {
		out[2*pos] = value
		out[2*pos+1] = value
	}

	return out
}

// Channel extracts channel ch of an interleaved block.
func Channel(interleaved []int16, ch int) []int16 {
	out := make([]int16, len(interleaved)/2)
	for i := range out {
		out[i] = interleaved[2*i+ch]
	}

	return out
}

// RunBlocks feeds src through process in blocks of frameSize frames, the
// way an audio callback would, and returns the concatenated output.
func RunBlocks(process func(dst, src []int16), src []int16, frameSize int) []int16 {
	out := make([]int16, len(src))
	step := 2 * frameSize

	for off := 0; off < len(src); off += step {
		end := min(off+step, len(src))
		process(out[off:end], src[off:end])
	}

	return out
}

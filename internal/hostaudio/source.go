// Package hostaudio stands in for the I2S codec on a desktop host. A Stream
// pulls input from a Source, runs it through the engine one buffer at a
// time and hands the result to the sound card as 16-bit little-endian PCM.
//
// The default build plays through oto; build with -tags headless to drive
// the stream from a timer without audio hardware.
package hostaudio

import "math"

// Source fills interleaved stereo input buffers.
type Source interface {
	Fill(buf []int16)
}

// Silence is an all-zero source.
type Silence struct{}

// Fill clears buf.
func (Silence) Fill(buf []int16) { clear(buf) }

// Sine is a test oscillator driven by a 32-bit phase accumulator, the same
// arrangement as the firmware's built-in tone: one full cycle per 2^32.
type Sine struct {
	inc   uint32
	phase uint32
	amp   float64
}

// NewSine returns an oscillator at freq Hz with peak amplitude amp
// relative to full scale.
func NewSine(freq, sampleRate, amp float64) *Sine {
	return &Sine{
		inc: uint32(freq / sampleRate * (1 << 32)),
		amp: math.Max(0, math.Min(1, amp)) * 32767,
	}
}

// Fill writes the same tone to both channels.
func (s *Sine) Fill(buf []int16) {
	for i := 0; i+1 < len(buf); i += 2 {
		v := int16(s.amp * math.Sin(2*math.Pi*float64(s.phase)/(1<<32)))
		buf[i] = v
		buf[i+1] = v
		s.phase += s.inc
	}
}

// Noise is deterministic white noise from a 32-bit xorshift generator.
type Noise struct {
	state uint32
	shift uint
}

// NewNoise seeds the generator. level reduces the amplitude by 6 dB per
// step.
func NewNoise(seed uint32, level uint) *Noise {
	if seed == 0 {
		seed = 0x9e3779b9
	}

	return &Noise{state: seed, shift: min(level, 15)}
}

// Fill writes independent noise to each channel.
func (n *Noise) Fill(buf []int16) {
	for i := range buf {
		n.state ^= n.state << 13
		n.state ^= n.state >> 17
		n.state ^= n.state << 5
		buf[i] = int16(n.state) >> n.shift
	}
}

package spectrum

import "math"

// ToneLevel returns the amplitude, relative to full scale, of the component
// at freq in channel ch of an interleaved block. It runs a single Goertzel
// recurrence, so it is cheaper than a full FFT when one frequency matters.
func ToneLevel(interleaved []int16, ch int, freq, sampleRate float64) float64 {
	n := len(interleaved) / 2
	if n == 0 || sampleRate <= 0 {
		return 0
	}

	coeff := 2 * math.Cos(2*math.Pi*freq/sampleRate)

	var s1, s2 float64
	for i := 0; i < n; i++ {
		s0 := float64(interleaved[2*i+ch])/32768 + coeff*s1 - s2
		s2, s1 = s1, s0
	}

	power := s1*s1 + s2*s2 - coeff*s1*s2

	return 2 * math.Sqrt(max(power, 0)) / float64(n)
}

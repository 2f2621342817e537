package core

import "math"

// denormalFloor is the magnitude below which filter state is treated as
// silence.
const denormalFloor = 1e-30

// Clamp limits x to [lo, hi]. Reversed bounds are swapped.
func Clamp(x, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	return math.Max(lo, math.Min(hi, x))
}

// FlushDenormals returns 0 for values too small to matter.
func FlushDenormals(x float64) float64 {
	if math.Abs(x) < denormalFloor {
		return 0
	}

	return x
}

// PeakToDBFS converts a meter reading to dB relative to full scale. A
// silent channel reads -Inf.
func PeakToDBFS(peak int16) float64 {
	if peak <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(float64(peak)/32767)
}

package core

import "math"

// Fixed-point widths used on the audio path. The shift amounts are audible
// and must not be replaced by rounding variants.
const (
	// MixBits is the precision of the wet/dry control.
	MixBits = 12
	// MixFull is the full-scale (all wet) mix value.
	MixFull = 1<<MixBits - 1

	// GainBits is the precision of the soft-mute gain stage.
	GainBits = 9
	// GainUnity is the soft-mute counter value at unity gain.
	GainUnity = 1 << GainBits

	// ParamMax is the upper bound of the 12-bit parameter domain.
	ParamMax = 4095
)

// Saturate16 clamps x to the signed 16-bit range.
func Saturate16(x int32) int16 {
	if x > 32767 {
		return 32767
	}

	if x < -32768 {
		return -32768
	}

	return int16(x)
}

// Abs16 rectifies x. The magnitude of -32768 saturates to 32767.
func Abs16(x int16) int16 {
	if x >= 0 {
		return x
	}

	if x == -32768 {
		return 32767
	}

	return -x
}

// Blend mixes a wet and a dry sample with a 12-bit wet amount:
//
//	saturate16((wet*mix + dry*(4095-mix)) >> 12)
//
// mix is expected in [0, MixFull]. The shift truncates toward negative
// infinity.
func Blend(wet, dry int16, mix int32) int16 {
	return Saturate16((int32(wet)*mix + int32(dry)*(MixFull-mix)) >> MixBits)
}

// ScaleQ9 applies a soft-mute gain in 1/512 steps.
func ScaleQ9(x int16, gain int32) int16 {
	return Saturate16((int32(x) * gain) >> GainBits)
}

// ClampParam limits v to the 12-bit parameter domain.
func ClampParam(v int32) int16 {
	if v < 0 {
		return 0
	}

	if v > ParamMax {
		return ParamMax
	}

	return int16(v)
}

// SaturateFloat16 rounds x to the nearest sample, clamping to the signed
// 16-bit range. NaN gives 0.
func SaturateFloat16(x float64) int16 {
	switch {
	case x != x:
		return 0
	case x >= 32767:
		return 32767
	case x <= -32768:
		return -32768
	}

	return int16(math.Round(x))
}

package param

// IIRShift is the coefficient of the first-order smoothing filter, 1/16 of
// the error per tick.
const IIRShift = 4

// IIR is the shift-based low-pass state of one channel. The accumulator
// holds the output with IIRShift fractional bits.
type IIR struct {
	acc int32
}

// Filter feeds one 12-bit reading and returns the smoothed value:
//
//	acc += ((in << K) - acc) >> K
//	out  = acc >> K
//
// Shifts are arithmetic and truncating.
func (f *IIR) Filter(in int16) int16 {
	f.acc += ((int32(in) << IIRShift) - f.acc) >> IIRShift
	return int16(f.acc >> IIRShift)
}

// Reset preloads the filter with v so that the output starts settled.
func (f *IIR) Reset(v int16) {
	f.acc = int32(v) << IIRShift
}

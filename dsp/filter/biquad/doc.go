// Package biquad runs second-order IIR sections and short cascades of them.
//
// Sections filter float64 blocks in place, either contiguous or one channel
// of an interleaved buffer. Retuning and processing never allocate, so a
// Chain may live inside an effect instance on the audio path. Coefficients
// come from dsp/filter/design.
package biquad

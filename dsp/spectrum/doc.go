// Package spectrum measures the frequency content of interleaved int16
// audio: an FFT Analyzer producing a windowed dBFS magnitude spectrum of one
// channel, and a Goertzel tone probe for single-frequency levels.
//
// The FFT comes from algo-fft; windowing and magnitude use algo-vecmath
// kernels.
package spectrum

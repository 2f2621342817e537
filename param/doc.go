// Package param holds the parameter bank and the acquisition subsystem that
// fills it from potentiometer and control-voltage readings.
//
// Acquisition runs on its own fixed-period tick, independent of the audio
// buffer clock. Each tick consumes the result of the conversion started on
// the previous tick, smooths it with a shift-based IIR low-pass, writes it to
// the channel's destination slot, then starts the next channel's conversion.
//
// The bank is shared by three contexts without locks. Acquisition writes
// filtered values, the foreground writes manual overrides and destination
// remaps, the audio path only reads. A manual override of a slot that is the
// live destination of some channel is overwritten by the next tick of that
// channel; this last-writer-wins race is intended and not detected.
package param

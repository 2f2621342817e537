// Package meter provides the four-channel peak-hold level meter fed by the
// audio callback.
//
// Peaks rise on the audio path and are only lowered by ReadAndClear on the
// foreground. Each channel is a single atomic cell; there is no lock.
package meter

// Package fx is the effect-algorithm framework: the Algorithm descriptor and
// Instance contract, the fixed-capacity Arena instances draw their sample
// memory from, the Registry of selectable algorithms and the Selector that
// switches the active instance without the audio path ever seeing a
// half-built one.
//
// Exactly one instance is active at a time. The audio path reaches it
// through a single atomic pointer; see Selector.Process.
package fx

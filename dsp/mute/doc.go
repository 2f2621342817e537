// Package mute implements the click-free soft-mute envelope that gates the
// output of the audio callback.
//
// The envelope has four states. Passthrough and Muted are terminal and are
// only left on a foreground request; MutingDown and MutingUp are driven by
// the audio path, one counter step per stereo sample pair, and end in the
// opposite terminal state:
//
//	Passthrough --Request(true)--> MutingDown --512 pairs--> Muted
//	Muted --Request(false)--> MutingUp --512 pairs--> Passthrough
//
// Ownership of the state and counter cells alternates: the foreground writes
// them only while the envelope rests in a terminal state, the audio path only
// while it is fading. No lock is involved.
package mute

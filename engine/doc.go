// Package engine wires the effects core together: the per-buffer audio
// Pipeline and the foreground-facing Engine API used by displays, menus and
// preset replay.
//
// Three contexts touch an Engine. The audio context calls Process once per
// buffer, the acquisition context runs Acquirer().Run, and the foreground
// calls everything else. Only the foreground may block.
package engine

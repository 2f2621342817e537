// Package algo holds the built-in effect algorithms: Bypass, the three
// fourth-order filters, a stereo feedback delay and a quadrature chorus.
//
// RegisterDefaults installs them in selection order. Each algorithm reads
// bank slots 1..3 once per buffer, so parameter changes take effect on the
// next callback.
package algo

//go:build !unix

package console

import "errors"

// Terminal is unavailable on this platform.
type Terminal struct {
	done chan struct{}
}

// NewTerminal returns a reader whose Start always fails.
func NewTerminal(func(byte) bool) *Terminal {
	t := &Terminal{done: make(chan struct{})}
	close(t.done)

	return t
}

// IsTerminal reports false.
func IsTerminal() bool { return false }

// Start fails.
func (t *Terminal) Start() error {
	return errors.New("console: raw terminal unsupported on this platform")
}

// Done is already closed.
func (t *Terminal) Done() <-chan struct{} { return t.done }

// Stop does nothing.
func (t *Terminal) Stop() {}

//go:build unix

package console

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// Terminal puts stdin in raw non-blocking mode and feeds each byte to a
// handler on its own goroutine.
type Terminal struct {
	handle func(byte) bool

	fd       int
	oldState *term.State
	nonblock bool

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// NewTerminal creates a reader. handle returns true to end reading.
func NewTerminal(handle func(byte) bool) *Terminal {
	return &Terminal{
		handle: handle,
		fd:     int(os.Stdin.Fd()),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// IsTerminal reports whether stdin is a TTY.
func IsTerminal() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// Start switches the terminal mode and begins reading.
func (t *Terminal) Start() error {
	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		close(t.done)
		return fmt.Errorf("console: raw mode: %w", err)
	}

	t.oldState = oldState

	err = syscall.SetNonblock(t.fd, true)
	if err != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
		close(t.done)

		return fmt.Errorf("console: nonblocking stdin: %w", err)
	}

	t.nonblock = true

	go t.read()

	return nil
}

func (t *Terminal) read() {
	defer close(t.done)

	buf := make([]byte, 1)

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		n, err := syscall.Read(t.fd, buf)
		if n > 0 && t.handle(buf[0]) {
			return
		}

		if errors.Is(err, syscall.EAGAIN) || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		if err != nil {
			return
		}
	}
}

// Done is closed when reading ends, by Stop or by the handler.
func (t *Terminal) Done() <-chan struct{} { return t.done }

// Stop ends reading and restores the terminal.
func (t *Terminal) Stop() {
	t.stopped.Do(func() { close(t.stopCh) })
	<-t.done

	if t.nonblock {
		_ = syscall.SetNonblock(t.fd, false)
		t.nonblock = false
	}

	if t.oldState != nil {
		_ = term.Restore(t.fd, t.oldState)
		t.oldState = nil
	}
}

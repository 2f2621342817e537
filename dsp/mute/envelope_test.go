package mute

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFrames = 64

func constBlock(v int16) []int16 {
	buf := make([]int16, 2*testFrames)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

// startRequest issues a blocking request and waits until the envelope has
// left the given terminal state.
func startRequest(t *testing.T, e *Envelope, enable bool, from State) <-chan struct{} {
	t.Helper()

	done := make(chan struct{})
	go func() {
		e.Request(enable)
		close(done)
	}()

	require.Eventually(t, func() bool { return e.State() != from }, time.Second, time.Millisecond)

	return done
}

func TestNewStartsMuted(t *testing.T) {
	e := New()
	assert.Equal(t, Muted, e.State())
	assert.Equal(t, 0, e.Counter())

	buf := constBlock(1000)
	e.Process(buf)
	assert.Equal(t, constBlock(0), buf)
}

func TestPassthroughLeavesSignalUntouched(t *testing.T) {
	e := New(WithInitialState(Passthrough))

	buf := constBlock(-1234)
	e.Process(buf)
	assert.Equal(t, constBlock(-1234), buf)
}

func TestMuteDownTakesExactly512Pairs(t *testing.T) {
	e := New(WithInitialState(Passthrough), WithPollInterval(100*time.Microsecond))
	done := startRequest(t, e, true, Passthrough)

	require.Equal(t, MutingDown, e.State())
	require.Equal(t, 512, e.Counter())

	var outs []int16
	for block := 0; block < 512/testFrames; block++ {
		buf := constBlock(1000)
		e.Process(buf)
		for i := 0; i < len(buf); i += 2 {
			assert.Equal(t, buf[i], buf[i+1])
			outs = append(outs, buf[i])
		}
	}

	require.Len(t, outs, 512)
	for k, got := range outs {
		want := int16((1000 * int32(512-k)) >> 9)
		require.Equalf(t, want, got, "pair %d", k)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Request(true) did not return after the fade")
	}

	assert.Equal(t, Muted, e.State())
	assert.Equal(t, 0, e.Counter())

	buf := constBlock(1000)
	e.Process(buf)
	assert.Equal(t, constBlock(0), buf)
}

func TestMuteUpTakesExactly512Pairs(t *testing.T) {
	e := New(WithPollInterval(100 * time.Microsecond))
	done := startRequest(t, e, false, Muted)

	require.Equal(t, MutingUp, e.State())

	var outs []int16
	for block := 0; block < 512/testFrames; block++ {
		buf := constBlock(-2048)
		e.Process(buf)
		for i := 0; i < len(buf); i += 2 {
			outs = append(outs, buf[i])
		}
	}

	for k, got := range outs {
		want := int16((-2048 * int32(k)) >> 9)
		require.Equalf(t, want, got, "pair %d", k)
	}

	<-done
	assert.Equal(t, Passthrough, e.State())
	assert.Equal(t, 0, e.Counter())

	buf := constBlock(-2048)
	e.Process(buf)
	assert.Equal(t, constBlock(-2048), buf)
}

func TestFadeEndsMidBlock(t *testing.T) {
	e := New(WithInitialState(Passthrough), WithPollInterval(100*time.Microsecond))
	done := startRequest(t, e, true, Passthrough)

	// 512 pairs + 32 pairs of silence in a 544-pair buffer.
	buf := make([]int16, 2*544)
	for i := range buf {
		buf[i] = 512
	}
	e.Process(buf)
	<-done

	assert.Equal(t, int16(512), buf[0])
	assert.Equal(t, int16(1), buf[2*511])
	for i := 2 * 512; i < len(buf); i++ {
		require.Zero(t, buf[i])
	}
}

func TestRequestCurrentTerminalIsNoop(t *testing.T) {
	e := New()

	finished := make(chan struct{})
	go func() {
		e.Request(true)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Request(true) from Muted blocked")
	}

	assert.Equal(t, Muted, e.State())

	p := New(WithInitialState(Passthrough))
	require.NoError(t, p.RequestContext(context.Background(), false))
	assert.Equal(t, Passthrough, p.State())
}

func TestRequestContextTimesOutWithoutAudio(t *testing.T) {
	e := New(WithInitialState(Passthrough), WithPollInterval(100*time.Microsecond))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := e.RequestContext(ctx, true)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The fade is not rolled back.
	assert.Equal(t, MutingDown, e.State())
}

func TestInvalidStateHealsToPassthrough(t *testing.T) {
	e := New()
	e.state.Store(7)

	buf := constBlock(99)
	e.Process(buf)

	assert.Equal(t, Passthrough, e.State())
	assert.Equal(t, uint32(1), e.TakeCorruptions())
	assert.Equal(t, uint32(0), e.TakeCorruptions())

	e.Process(buf)
	assert.Equal(t, constBlock(99), buf)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "muted", Muted.String())
	assert.Equal(t, "invalid", State(9).String())
	assert.True(t, Passthrough.Terminal())
	assert.False(t, MutingUp.Terminal())
}

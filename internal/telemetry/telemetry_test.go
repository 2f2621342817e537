package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/emeb/S3GTA/engine"
	"github.com/emeb/S3GTA/internal/hostaudio"
)

type fakeController struct {
	mu    sync.Mutex
	calls []Command
	fail  error
}

func (f *fakeController) record(c Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, c)

	return f.fail
}

func (f *fakeController) last() Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.calls) == 0 {
		return Command{}
	}

	return f.calls[len(f.calls)-1]
}

func (*fakeController) Algorithms() []string { return []string{"Bypass", "LPF"} }

func (f *fakeController) SelectAlgorithmContext(_ context.Context, idx int) error {
	return f.record(Command{Op: "select", Index: idx})
}

func (f *fakeController) RequestMuteContext(_ context.Context, enable bool) error {
	if enable {
		return f.record(Command{Op: "mute"})
	}

	return f.record(Command{Op: "unmute"})
}

func (f *fakeController) SetParameterValue(slot int, v int16) error {
	return f.record(Command{Op: "param", Slot: slot, Value: v})
}

func (f *fakeController) SetParameterDestination(ch, slot int) error {
	return f.record(Command{Op: "dest", Channel: ch, Slot: slot})
}

func newTestServer(t *testing.T, ctl Controller, opts ...Option) *Server {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s, err := New(ctl, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)

	return s
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	ctx.Request.SetBodyString(body)
	s.Handler(ctx)

	return ctx
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, &fakeController{})

	ctx := do(s, "GET", "/status", "")
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())

	require.NoError(t, s.Publish(engine.Snapshot{Algorithm: "LPF", AlgorithmIndex: 1, Mute: "Passthrough"}))

	ctx = do(s, "GET", "/status", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var got map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
	assert.Equal(t, "status", got["type"])
	assert.Equal(t, "LPF", got["algorithm"])
	assert.InDelta(t, 1, got["algorithm_index"], 0)
}

func TestAlgorithmsAndNotFound(t *testing.T) {
	s := newTestServer(t, &fakeController{})

	ctx := do(s, "GET", "/algorithms", "")
	assert.JSONEq(t, `["Bypass","LPF"]`, string(ctx.Response.Body()))

	ctx = do(s, "GET", "/nope", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestControl(t *testing.T) {
	tests := []struct {
		body string
		want Command
	}{
		{`{"op":"select","index":3}`, Command{Op: "select", Index: 3}},
		{`{"op":"mute"}`, Command{Op: "mute"}},
		{`{"op":"unmute"}`, Command{Op: "unmute"}},
		{`{"op":"param","slot":2,"value":1000}`, Command{Op: "param", Slot: 2, Value: 1000}},
		{`{"op":"dest","channel":1,"slot":3}`, Command{Op: "dest", Channel: 1, Slot: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.want.Op, func(t *testing.T) {
			ctl := &fakeController{}
			s := newTestServer(t, ctl)

			ctx := do(s, "POST", "/control", tt.body)
			require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
			assert.JSONEq(t, `{"type":"reply","ok":true,"op":"`+tt.want.Op+`"}`, string(ctx.Response.Body()))
			assert.Equal(t, tt.want, ctl.last())
		})
	}
}

func TestControlErrors(t *testing.T) {
	ctl := &fakeController{}
	s := newTestServer(t, ctl)

	ctx := do(s, "GET", "/control", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = do(s, "POST", "/control", `{"op":"reboot"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "unknown op")

	ctx = do(s, "POST", "/control", `{`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctl.fail = context.DeadlineExceeded
	ctx = do(s, "POST", "/control", `{"op":"mute"}`)
	assert.Equal(t, fasthttp.StatusGatewayTimeout, ctx.Response.StatusCode())

	ctl.fail = errors.New("bad slot")
	ctx = do(s, "POST", "/control", `{"op":"param","slot":9}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "bad slot")
}

func TestSpectrum(t *testing.T) {
	const sr = 48000.0

	// bin 32 of a 1024-point transform
	tone := make([]int16, 2*engine.TapFrames)
	hostaudio.NewSine(32*sr/engine.TapFrames, sr, 0.5).Fill(tone)

	tap := func(dst []int16) int { return copy(dst, tone) }
	s := newTestServer(t, &fakeController{}, WithTap(tap, sr))

	ctx := do(s, "GET", "/spectrum?ch=1", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var got Spectrum
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
	assert.Equal(t, 1, got.Channel)
	assert.InDelta(t, sr/engine.TapFrames, got.BinHz, 1e-9)
	require.Len(t, got.DB, engine.TapFrames/2+1)

	peak := 0
	for k, v := range got.DB {
		if v > got.DB[peak] {
			peak = k
		}
	}

	assert.Equal(t, 32, peak)
	assert.InDelta(t, -6.02, got.DB[peak], 0.2)

	ctx = do(s, "GET", "/spectrum?ch=2", "")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	plain := newTestServer(t, &fakeController{})
	ctx = do(plain, "GET", "/spectrum", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestWebsocket(t *testing.T) {
	ctl := &fakeController{}
	s := newTestServer(t, ctl)
	require.NoError(t, s.Publish(engine.Snapshot{Algorithm: "Bypass", Mute: "Muted"}))

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = s.Serve(ln) }()

	t.Cleanup(func() { _ = s.Shutdown() })

	dialer := websocket.Dialer{
		NetDial: func(string, string) (net.Conn, error) { return ln.Dial() },
	}

	conn, _, err := dialer.Dial("ws://s3gta/ws", nil)
	require.NoError(t, err)

	defer conn.Close()

	read := func() map[string]any {
		t.Helper()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var v map[string]any
		require.NoError(t, json.Unmarshal(msg, &v))

		return v
	}

	// the last snapshot greets a new client
	first := read()
	assert.Equal(t, "status", first["type"])
	assert.Equal(t, "Muted", first["mute"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"op":"select","index":1}`)))

	reply := read()
	assert.Equal(t, "reply", reply["type"])
	assert.Equal(t, true, reply["ok"])
	assert.Equal(t, Command{Op: "select", Index: 1}, ctl.last())

	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, time.Millisecond)
	require.NoError(t, s.Publish(engine.Snapshot{Algorithm: "LPF", Mute: "Passthrough"}))

	update := read()
	assert.Equal(t, "LPF", update["algorithm"])
}

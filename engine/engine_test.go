package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/meter"
	"github.com/emeb/S3GTA/dsp/mute"
	"github.com/emeb/S3GTA/fx"
	"github.com/emeb/S3GTA/internal/testutil"
	"github.com/emeb/S3GTA/param"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *logtest.Hook) {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	e, err := New(append([]Option{WithLogger(log), WithMutePoll(50 * time.Microsecond)}, opts...)...)
	require.NoError(t, err)

	return e, hook
}

// runAudio drives the engine like a sound card until the returned stop
// function is called. observe sees every output buffer on the audio
// goroutine.
func runAudio(e *Engine, src []int16, observe func([]int16)) (stop func()) {
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		dst := make([]int16, len(src))

		for {
			select {
			case <-quit:
				return
			default:
			}

			e.Process(dst, src)

			if observe != nil {
				observe(dst)
			}

			runtime.Gosched()
		}
	}()

	return func() {
		close(quit)
		<-done
	}
}

func TestBootMutedThenStart(t *testing.T) {
	e, hook := newTestEngine(t)
	assert.Equal(t, mute.Muted, e.MuteState())
	assert.Equal(t, -1, e.ActiveAlgorithmIndex())
	assert.Empty(t, e.ActiveAlgorithmName())
	assert.Equal(t, []string{"Bypass", "LPF", "HPF", "BPF", "Delay", "Chorus"}, e.Algorithms())

	stop := runAudio(e, make([]int16, 128), nil)
	defer stop()

	require.NoError(t, e.Start(context.Background(), 0))
	assert.Equal(t, mute.Passthrough, e.MuteState())
	assert.Equal(t, "Bypass", e.ActiveAlgorithmName())
	assert.Equal(t, 0, e.ActiveAlgorithmIndex())

	var selected bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "algorithm selected" && entry.Data["algorithm"] == "Bypass" {
			selected = true
		}
	}

	assert.True(t, selected)
}

func TestSwitchPassesThroughMuted(t *testing.T) {
	reg := fx.NewRegistry(fx.DefaultArenaBytes)
	reg.MustRegister(constantAlgorithm("A", 1000))
	reg.MustRegister(constantAlgorithm("B", -1000))

	e, _ := newTestEngine(t, WithRegistry(reg))
	require.NoError(t, e.SetParameterValue(param.MixSlot, core.MixFull))

	var (
		prevSign   int
		zeroSeen   bool
		violations atomic.Int64
		positives  atomic.Int64
		negatives  atomic.Int64
	)

	stop := runAudio(e, make([]int16, 128), func(out []int16) {
		for _, s := range out {
			if s == 0 {
				zeroSeen = true
				continue
			}

			sign := 1
			if s < 0 {
				sign = -1
				negatives.Add(1)
			} else {
				positives.Add(1)
			}

			if prevSign != 0 && sign != prevSign && !zeroSeen {
				violations.Add(1)
			}

			prevSign, zeroSeen = sign, false
		}
	})

	require.NoError(t, e.Start(context.Background(), 0))

	for i := 1; i <= 6; i++ {
		require.NoError(t, e.SelectAlgorithm(i%2))
	}

	stop()

	assert.Zero(t, violations.Load())
	assert.Positive(t, positives.Load())
	assert.Positive(t, negatives.Load())
	assert.Equal(t, "A", e.ActiveAlgorithmName())
}

func TestConcurrentUnmuteCannotInterruptSwitch(t *testing.T) {
	var (
		e       *Engine
		builds  atomic.Int64
		unmuted atomic.Int64
	)

	build := func(v int16) func(fx.Env) (fx.Instance, error) {
		return func(fx.Env) (fx.Instance, error) {
			builds.Add(1)

			if e.MuteState() != mute.Muted {
				unmuted.Add(1)
			}

			time.Sleep(2 * time.Millisecond)

			return constant(v), nil
		}
	}

	reg := fx.NewRegistry(fx.DefaultArenaBytes)
	reg.MustRegister(fx.Algorithm{Name: "A", New: build(1000)})
	reg.MustRegister(fx.Algorithm{Name: "B", New: build(-1000)})

	e, _ = newTestEngine(t, WithRegistry(reg))

	stop := runAudio(e, make([]int16, 128), nil)
	defer stop()

	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 0))

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 1; i <= 12; i++ {
			assert.NoError(t, e.SelectAlgorithmContext(ctx, i%2))
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 40; i++ {
			assert.NoError(t, e.RequestMuteContext(ctx, false))
		}
	}()

	wg.Wait()

	assert.Equal(t, int64(13), builds.Load())
	assert.Zero(t, unmuted.Load(), "instances must only be built while muted")
	assert.Equal(t, mute.Passthrough, e.MuteState())
}

func TestSelectInvalidAlgorithm(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.SelectAlgorithm(42)
	require.ErrorIs(t, err, fx.ErrInvalidAlgorithm)
	assert.ErrorIs(t, err, fx.ErrConfiguration)
	assert.Equal(t, mute.Muted, e.MuteState())
}

func TestParameterAPI(t *testing.T) {
	e, _ := newTestEngine(t)

	name, err := e.ParameterName(0)
	require.NoError(t, err)
	assert.Equal(t, MixName, name)

	_, err = e.ParameterName(1)
	require.ErrorIs(t, err, param.ErrInvalidParameter, "no algorithm yet")

	stop := runAudio(e, make([]int16, 128), nil)
	defer stop()

	lpf, _ := e.sel.Registry().Lookup("LPF")
	require.NoError(t, e.Start(context.Background(), lpf))
	assert.Equal(t, 2, e.NumParameters())

	tests := []struct {
		slot    int
		value   int16
		name    string
		display string
	}{
		{0, 2050, "Mix", "50%"},
		{1, 4095, "Cutoff", "23.98 kHz"},
		{2, 0, "Resnnc", " 0%"},
	}

	for _, tt := range tests {
		require.NoError(t, e.SetParameterValue(tt.slot, tt.value))

		name, err := e.ParameterName(tt.slot)
		require.NoError(t, err)
		assert.Equal(t, tt.name, name)

		display, err := e.ParameterDisplayString(tt.slot)
		require.NoError(t, err)
		assert.Equal(t, tt.display, display)

		v, err := e.ParameterValue(tt.slot)
		require.NoError(t, err)
		assert.Equal(t, tt.value, v)
	}

	for _, slot := range []int{-1, 3, 4} {
		_, err := e.ParameterName(slot)
		assert.ErrorIs(t, err, param.ErrInvalidParameter, "slot %d", slot)

		_, err = e.ParameterDisplayString(slot)
		assert.ErrorIs(t, err, param.ErrInvalidParameter, "slot %d", slot)
	}

	assert.ErrorIs(t, e.SetParameterValue(4, 1), param.ErrInvalidParameter)
	_, err = e.ParameterValue(4)
	assert.ErrorIs(t, err, param.ErrInvalidParameter)

	require.NoError(t, e.SetParameterValue(3, 9999))
	v, err := e.ParameterValue(3)
	require.NoError(t, err)
	assert.Equal(t, int16(core.ParamMax), v, "writes are clamped")
}

func TestAcquisitionFeedsBank(t *testing.T) {
	pots := param.NewVirtualPots(4095, 0, 2000, 0)
	e, _ := newTestEngine(t, WithConverter(pots))

	for i := 0; i < 4*300; i++ {
		e.Acquirer().Tick()
	}

	mix, err := e.ParameterValue(param.MixSlot)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mix, int16(4090))
	assert.InDelta(t, 2000, int(e.bank.Get(2)), 2)

	require.NoError(t, e.SetParameterDestination(3, param.Unrouted))
	require.NoError(t, e.SetParameterDestination(2, 3))
	pots.Set(2, 500)

	for i := 0; i < 4*300; i++ {
		e.Acquirer().Tick()
	}

	assert.InDelta(t, 2000, int(e.bank.Get(2)), 2, "old destination keeps its last value")
	assert.InDelta(t, 500, int(e.bank.Get(3)), 2)
	assert.ErrorIs(t, e.SetParameterDestination(4, 0), param.ErrInvalidChannel)
	assert.Equal(t, e.Acquirer().Filtered(0), e.Snapshot().Knob)
}

func TestSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)

	src := testutil.StereoDC(1000, -2000, 64)
	e.Process(make([]int16, len(src)), src)

	s := e.Snapshot()
	assert.Equal(t, [meter.NumChannels]int16{1000, 2000, 0, 0}, s.Levels)
	assert.Equal(t, "muted", s.Mute)
	assert.Equal(t, -1, s.AlgorithmIndex)
	require.Len(t, s.Params, 1)
	assert.Equal(t, ParamView{Slot: 0, Name: MixName, Value: 0, Display: " 0%"}, s.Params[0])

	assert.Equal(t, [meter.NumChannels]int16{}, e.Snapshot().Levels, "snapshot drains the meters")
	assert.Zero(t, e.Level(meter.In0))
}

func TestPollReportsOverruns(t *testing.T) {
	e, hook := newTestEngine(t, WithClock(stepClock(2_000_000)))

	buf := make([]int16, 128)
	for i := 0; i < 3; i++ {
		e.Process(buf, buf)
	}

	assert.Equal(t, uint32(3), e.Overruns())
	assert.Equal(t, 50, e.LoadPercent(), "starts are 4 ms apart, each run takes 2 ms")

	hook.Reset()
	e.Poll()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, uint32(3), entry.Data["missed"])

	hook.Reset()
	e.Poll()
	assert.Empty(t, hook.AllEntries())
}

func TestRequestMuteContext(t *testing.T) {
	e, _ := newTestEngine(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := e.RequestMuteContext(ctx, false)
	require.ErrorIs(t, err, context.DeadlineExceeded, "nothing is running the audio path")
	assert.Equal(t, mute.MutingUp, e.MuteState())

	stop := runAudio(e, make([]int16, 128), nil)
	defer stop()

	e.RequestMute(true)
	assert.Equal(t, mute.Muted, e.MuteState())
	e.RequestMute(false)
	assert.Equal(t, mute.Passthrough, e.MuteState())
}

func TestNewRejectsOversizedRegistry(t *testing.T) {
	_, err := New(WithRegistry(fx.NewRegistry(1 << 20)))
	assert.ErrorIs(t, err, fx.ErrArenaExhausted)

	_, err = New(WithConfig(core.WithArenaBytes(1024)))
	assert.ErrorIs(t, err, fx.ErrArenaExhausted, "built-in delay does not fit")
}

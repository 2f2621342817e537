package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/dsp/meter"
	"github.com/emeb/S3GTA/dsp/mute"
	"github.com/emeb/S3GTA/fx"
	"github.com/emeb/S3GTA/fx/algo"
	"github.com/emeb/S3GTA/param"
)

// MixName labels bank slot 0.
const MixName = "Mix"

// Engine is the effects core as seen by the host.
type Engine struct {
	cfg core.Config
	log logrus.FieldLogger

	bank  *param.Bank
	meter *meter.Meter
	mute  *mute.Envelope
	acq   *param.Acquirer
	sel   *fx.Selector
	pipe  *Pipeline

	// ctl serializes foreground selects and mute requests so an unmute
	// cannot land inside a switch.
	ctl sync.Mutex

	reportedOverruns atomic.Uint32
}

// New builds an engine. It boots muted with no algorithm attached; call
// Start to select the first algorithm and unmute.
func New(opts ...Option) (*Engine, error) {
	o := options{
		log:   logrus.StandardLogger(),
		clock: monotonicClock(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	cfg := core.ApplyOptions(o.core...)

	reg := o.registry
	if reg == nil {
		var err error

		reg, err = algo.NewDefaultRegistry(cfg.ArenaBytes)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	if reg.ArenaBytes() > cfg.ArenaBytes {
		return nil, fmt.Errorf("engine: registry checked against %d bytes, arena has %d: %w",
			reg.ArenaBytes(), cfg.ArenaBytes, fx.ErrArenaExhausted)
	}

	if o.converter == nil {
		o.converter = param.NewVirtualPots()
	}

	e := &Engine{
		cfg:   cfg,
		log:   o.log,
		bank:  &param.Bank{},
		meter: &meter.Meter{},
	}

	e.mute = mute.New(mute.WithLogger(o.log), mute.WithPollInterval(o.mutePoll))
	e.acq = param.NewAcquirer(e.bank, o.converter)
	e.sel = fx.NewSelector(reg, e.mute, fx.Env{
		Arena:      fx.NewArena(cfg.ArenaBytes),
		Params:     fx.NewParams(e.bank),
		SampleRate: cfg.SampleRate,
		FrameSize:  cfg.FrameSize,
	}, fx.WithSelectorLogger(o.log))
	e.pipe = NewPipeline(e.meter, e.mute, e.bank, e.sel, cfg.FrameSize, cfg.BufferPeriodNanos(), o.clock)

	return e, nil
}

// Config returns the settings the engine runs with.
func (e *Engine) Config() core.Config { return e.cfg }

// Process is the buffer-ready callback.
func (e *Engine) Process(dst, src []int16) { e.pipe.Process(dst, src) }

// Pipeline exposes the audio path, mainly for its output tap.
func (e *Engine) Pipeline() *Pipeline { return e.pipe }

// Acquirer returns the periodic acquisition tick target.
func (e *Engine) Acquirer() *param.Acquirer { return e.acq }

// Start selects the first algorithm. Since the engine boots muted, the
// selection's closing unmute is what brings the output up.
func (e *Engine) Start(ctx context.Context, idx int) error {
	e.log.WithFields(logrus.Fields{
		"sample_rate": e.cfg.SampleRate,
		"frame_size":  e.cfg.FrameSize,
		"arena_bytes": e.cfg.ArenaBytes,
	}).Info("engine starting")

	return e.SelectAlgorithmContext(ctx, idx)
}

// Close detaches the active algorithm. Call it after the audio path has
// stopped.
func (e *Engine) Close() {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.sel.Close()
}

// Level returns and drains the peak of a meter channel.
func (e *Engine) Level(ch meter.Channel) int16 { return e.meter.ReadAndClear(ch) }

// Load returns the last callback period and duration.
func (e *Engine) Load() Load { return e.pipe.Load() }

// LoadPercent returns the share of the buffer period spent in the callback.
func (e *Engine) LoadPercent() int { return e.pipe.Load().Percent() }

// Overruns returns the number of callbacks that missed their deadline.
func (e *Engine) Overruns() uint32 { return e.pipe.Overruns() }

// SelectAlgorithm switches algorithms, blocking through the mute fades.
func (e *Engine) SelectAlgorithm(idx int) error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	return e.sel.Select(idx)
}

// SelectAlgorithmContext is SelectAlgorithm bounded by ctx.
func (e *Engine) SelectAlgorithmContext(ctx context.Context, idx int) error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	return e.sel.SelectContext(ctx, idx)
}

// RequestMute fades the output down (true) or up (false) and blocks until
// the fade is done. There is no timeout. It waits for any algorithm switch
// in progress to finish first.
func (e *Engine) RequestMute(enable bool) {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mute.Request(enable)
}

// RequestMuteContext is RequestMute bounded by ctx. The deadline does not
// cover waiting for a switch in progress.
func (e *Engine) RequestMuteContext(ctx context.Context, enable bool) error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	return e.mute.RequestContext(ctx, enable)
}

// MuteState returns the envelope phase.
func (e *Engine) MuteState() mute.State { return e.mute.State() }

// ActiveAlgorithmName returns the name of the active algorithm, or "".
func (e *Engine) ActiveAlgorithmName() string {
	if a := e.sel.Active(); a != nil {
		return a.Name
	}

	return ""
}

// ActiveAlgorithmIndex returns the selection index of the active
// algorithm, or -1.
func (e *Engine) ActiveAlgorithmIndex() int { return e.sel.ActiveIndex() }

// Algorithms lists the selectable algorithms by index.
func (e *Engine) Algorithms() []string { return e.sel.Registry().Names() }

// NumParameters returns how many bank slots after the mix the active
// algorithm uses.
func (e *Engine) NumParameters() int {
	if a := e.sel.Active(); a != nil {
		return len(a.ParamNames)
	}

	return 0
}

func (e *Engine) checkSlot(slot int) error {
	if slot < 0 || slot > e.NumParameters() {
		return fmt.Errorf("engine: slot %d of %s: %w", slot, e.ActiveAlgorithmName(), param.ErrInvalidParameter)
	}

	return nil
}

// ParameterName labels bank slot 0 (the mix) through NumParameters.
func (e *Engine) ParameterName(slot int) (string, error) {
	if err := e.checkSlot(slot); err != nil {
		return "", err
	}

	if slot == param.MixSlot {
		return MixName, nil
	}

	return e.sel.Active().ParamName(slot), nil
}

// ParameterDisplayString renders the value of bank slot 0 through
// NumParameters.
func (e *Engine) ParameterDisplayString(slot int) (string, error) {
	if err := e.checkSlot(slot); err != nil {
		return "", err
	}

	if slot == param.MixSlot {
		return fmt.Sprintf("%2d%%", e.bank.Get(param.MixSlot)/41), nil
	}

	return e.sel.DescribeParameter(slot), nil
}

// SetParameterDestination binds acquisition channel ch to bank slot.
func (e *Engine) SetParameterDestination(ch, slot int) error {
	return e.acq.SetDestination(ch, slot)
}

// SetParameterValue writes a bank slot directly. If the slot is the live
// destination of a channel, the next acquisition tick overwrites it.
func (e *Engine) SetParameterValue(slot int, v int16) error {
	return e.bank.Set(slot, v)
}

// ParameterValue reads a bank slot.
func (e *Engine) ParameterValue(slot int) (int16, error) {
	if slot < 0 || slot >= param.NumParams {
		return 0, fmt.Errorf("engine: slot %d: %w", slot, param.ErrInvalidParameter)
	}

	return e.bank.Get(slot), nil
}

// Poll is foreground housekeeping. It reports healed mute corruptions and
// missed deadlines since the previous call.
func (e *Engine) Poll() {
	if n := e.mute.TakeCorruptions(); n > 0 {
		e.log.WithField("count", n).Warn("mute envelope state corrupted, reset to passthrough")
	}

	total := e.pipe.Overruns()
	if prev := e.reportedOverruns.Swap(total); total != prev {
		e.log.WithFields(logrus.Fields{
			"missed": total - prev,
			"total":  total,
			"load":   e.LoadPercent(),
		}).Warn("audio callback overran its buffer period")
	}

	if n := e.acq.TakeOverruns(); n > 0 {
		e.log.WithField("missed", n).Warn("acquisition ticks overran")
	}
}

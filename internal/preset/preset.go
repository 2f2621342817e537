// Package preset stores and replays engine state as small Lua scripts.
// A preset drives the same calls as the touch screen:
//
//	fx.select("Delay")   -- or an index
//	fx.param(0, 2048)    -- bank slot, value 0..4095
//	fx.dest(1, 2)        -- route pot 1 to slot 2
//	fx.mute(false)
//
// fx.algorithms() returns the names in selection order and fx.log(msg)
// writes to the host log.
package preset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/emeb/S3GTA/dsp/core"
)

// ErrUnknownAlgorithm is returned when fx.select names no algorithm.
var ErrUnknownAlgorithm = errors.New("preset: unknown algorithm")

// Target is the engine surface a preset drives.
type Target interface {
	Algorithms() []string
	ActiveAlgorithmIndex() int
	NumParameters() int
	SelectAlgorithmContext(ctx context.Context, idx int) error
	RequestMuteContext(ctx context.Context, enable bool) error
	SetParameterValue(slot int, v int16) error
	ParameterValue(slot int) (int16, error)
	SetParameterDestination(ch, slot int) error
}

// Runner executes preset scripts. Each run gets a fresh interpreter with
// only the base, string, table and math libraries.
type Runner struct {
	target Target
	log    logrus.FieldLogger
}

// New creates a runner for t. A nil logger means the standard logger.
func New(t Target, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Runner{target: t, log: log}
}

// Run executes src. name labels errors and log lines. Cancelling ctx
// aborts the script and any fade it is waiting on.
func (r *Runner) Run(ctx context.Context, name, src string) error {
	L, err := r.newState(ctx)
	if err != nil {
		return err
	}
	defer L.Close()

	fn, err := L.LoadString(src)
	if err != nil {
		return fmt.Errorf("preset %s: %w", name, err)
	}

	L.Push(fn)

	err = L.PCall(0, lua.MultRet, nil)
	if err != nil {
		return fmt.Errorf("preset %s: %w", name, err)
	}

	r.log.WithField("preset", name).Info("preset applied")

	return nil
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	L, err := r.newState(ctx)
	if err != nil {
		return err
	}
	defer L.Close()

	err = L.DoFile(path)
	if err != nil {
		return fmt.Errorf("preset %s: %w", path, err)
	}

	r.log.WithField("preset", path).Info("preset applied")

	return nil
}

func (r *Runner) newState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name))
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("preset: open %s: %w", lib.name, err)
		}
	}

	L.SetContext(ctx)
	L.SetGlobal("fx", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"select":     r.luaSelect,
		"param":      r.luaParam,
		"dest":       r.luaDest,
		"mute":       r.luaMute,
		"algorithms": r.luaAlgorithms,
		"log":        r.luaLog,
	}))

	return L, nil
}

func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func (r *Runner) luaSelect(L *lua.LState) int {
	idx := -1

	switch v := L.Get(1).(type) {
	case lua.LNumber:
		idx = int(v)
	case lua.LString:
		for i, n := range r.target.Algorithms() {
			if n == string(v) {
				idx = i
				break
			}
		}

		if idx < 0 {
			return raise(L, fmt.Errorf("%w %q", ErrUnknownAlgorithm, string(v)))
		}
	default:
		L.ArgError(1, "algorithm index or name expected")
		return 0
	}

	err := r.target.SelectAlgorithmContext(L.Context(), idx)
	if err != nil {
		return raise(L, err)
	}

	return 0
}

func (r *Runner) luaParam(L *lua.LState) int {
	slot := L.CheckInt(1)
	v := float64(L.CheckNumber(2))

	err := r.target.SetParameterValue(slot, core.ClampParam(int32(math.Max(-1, math.Min(v, core.ParamMax+1)))))
	if err != nil {
		return raise(L, err)
	}

	return 0
}

func (r *Runner) luaDest(L *lua.LState) int {
	err := r.target.SetParameterDestination(L.CheckInt(1), L.CheckInt(2))
	if err != nil {
		return raise(L, err)
	}

	return 0
}

func (r *Runner) luaMute(L *lua.LState) int {
	err := r.target.RequestMuteContext(L.Context(), L.CheckBool(1))
	if err != nil {
		return raise(L, err)
	}

	return 0
}

func (r *Runner) luaAlgorithms(L *lua.LState) int {
	t := L.NewTable()
	for _, n := range r.target.Algorithms() {
		t.Append(lua.LString(n))
	}

	L.Push(t)

	return 1
}

func (r *Runner) luaLog(L *lua.LState) int {
	r.log.WithField("source", "preset").Info(L.CheckString(1))
	return 0
}

// Save writes the active algorithm and its parameter values as a preset
// script. The mix is saved with them.
func Save(w io.Writer, t Target) error {
	idx := t.ActiveAlgorithmIndex()
	if idx < 0 {
		return fmt.Errorf("preset: save: %w", ErrUnknownAlgorithm)
	}

	names := t.Algorithms()
	if idx >= len(names) {
		return fmt.Errorf("preset: save: index %d: %w", idx, ErrUnknownAlgorithm)
	}

	_, err := fmt.Fprintf(w, "fx.select(%s)\n", strconv.Quote(names[idx]))
	if err != nil {
		return fmt.Errorf("preset: save: %w", err)
	}

	for slot := 0; slot <= t.NumParameters(); slot++ {
		v, err := t.ParameterValue(slot)
		if err != nil {
			return fmt.Errorf("preset: save: %w", err)
		}

		_, err = fmt.Fprintf(w, "fx.param(%d, %d)\n", slot, v)
		if err != nil {
			return fmt.Errorf("preset: save: %w", err)
		}
	}

	return nil
}

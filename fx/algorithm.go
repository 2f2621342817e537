package fx

import "github.com/emeb/S3GTA/param"

// MaxParams is the number of bank slots an algorithm may read (1..3).
const MaxParams = param.NumParams - 1

// Instance is a live, fully initialised algorithm.
//
// Process runs on the audio path: it must not allocate, block, log or
// panic. dst and src are interleaved stereo of equal length. The other
// methods run on the foreground.
type Instance interface {
	Process(dst, src []int16)
	// DescribeParameter renders the value of bank slot (1..MaxParams) for
	// display. Unused slots give "".
	DescribeParameter(slot int) string
	Release()
}

// Env is what an algorithm gets to build an instance.
type Env struct {
	Arena      *Arena
	Params     Params
	SampleRate float64
	FrameSize  int
}

// Algorithm describes one selectable effect.
type Algorithm struct {
	Name string
	// ParamNames labels bank slots 1..len(ParamNames).
	ParamNames []string
	// MemSize is the number of arena bytes New may allocate.
	MemSize int
	New     func(env Env) (Instance, error)
}

// ParamName returns the label of bank slot (1..MaxParams), or "".
func (a *Algorithm) ParamName(slot int) string {
	if slot < 1 || slot > len(a.ParamNames) {
		return ""
	}

	return a.ParamNames[slot-1]
}

// Params is the read-only view of the parameter bank handed to algorithms.
// Slot 0 carries the wet/dry mix and reads as 0 here.
type Params struct {
	bank *param.Bank
}

// NewParams wraps b.
func NewParams(b *param.Bank) Params {
	return Params{bank: b}
}

// Get returns bank slot 1..MaxParams. Other slots and a nil bank give 0.
func (p Params) Get(slot int) int16 {
	if p.bank == nil || slot < 1 || slot > MaxParams {
		return 0
	}

	return p.bank.Get(slot)
}

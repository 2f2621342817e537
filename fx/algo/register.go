package algo

import (
	"github.com/emeb/S3GTA/dsp/core"
	"github.com/emeb/S3GTA/fx"
)

// Defaults lists the built-in algorithms in selection order.
func Defaults() []fx.Algorithm {
	return []fx.Algorithm{
		Bypass,
		Filter(LowPass),
		Filter(HighPass),
		Filter(BandPass),
		Delay,
		Chorus,
	}
}

// RegisterDefaults registers the built-in algorithms into r.
func RegisterDefaults(r *fx.Registry) error {
	for _, a := range Defaults() {
		err := r.Register(a)
		if err != nil {
			return err
		}
	}

	return nil
}

// NewDefaultRegistry returns a registry holding the built-in algorithms,
// checked against an arena of arenaBytes.
func NewDefaultRegistry(arenaBytes int) (*fx.Registry, error) {
	r := fx.NewRegistry(arenaBytes)

	err := RegisterDefaults(r)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func sampleRate(env fx.Env) float64 {
	if env.SampleRate > 0 {
		return env.SampleRate
	}

	return core.DefaultSampleRate
}

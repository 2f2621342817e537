package algo

import "github.com/emeb/S3GTA/fx"

// Bypass copies input to output and has no parameters. It uses no arena
// memory; its small instance is heap allocated when selected.
var Bypass = fx.Algorithm{
	Name: "Bypass",
	New: func(fx.Env) (fx.Instance, error) {
		return bypass{}, nil
	},
}

type bypass struct{}

func (bypass) Process(dst, src []int16)     { copy(dst, src) }
func (bypass) DescribeParameter(int) string { return "" }
func (bypass) Release()                     {}

package engine

import "github.com/emeb/S3GTA/dsp/meter"

// ParamView is one row of the parameter display.
type ParamView struct {
	Slot    int    `json:"slot"`
	Name    string `json:"name"`
	Value   int16  `json:"value"`
	Display string `json:"display"`
}

// Snapshot is everything a status display needs, gathered in one
// foreground poll.
type Snapshot struct {
	Levels         [meter.NumChannels]int16 `json:"levels"`
	LoadPercent    int                      `json:"load_percent"`
	Algorithm      string                   `json:"algorithm"`
	AlgorithmIndex int                      `json:"algorithm_index"`
	Mute           string                   `json:"mute"`
	Knob           int16                    `json:"knob"`
	Params         []ParamView              `json:"params"`
	Overruns       uint32                   `json:"overruns"`
}

// Snapshot gathers the display state. Reading it drains the level meters.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		LoadPercent:    e.LoadPercent(),
		Algorithm:      e.ActiveAlgorithmName(),
		AlgorithmIndex: e.ActiveAlgorithmIndex(),
		Mute:           e.mute.State().String(),
		Knob:           e.acq.Filtered(0),
		Overruns:       e.Overruns(),
	}

	for ch := range s.Levels {
		s.Levels[ch] = e.meter.ReadAndClear(meter.Channel(ch))
	}

	n := e.NumParameters()
	s.Params = make([]ParamView, 0, n+1)

	for slot := 0; slot <= n; slot++ {
		name, err := e.ParameterName(slot)
		if err != nil {
			// the algorithm changed under us; show what we have
			break
		}

		display, _ := e.ParameterDisplayString(slot)
		s.Params = append(s.Params, ParamView{
			Slot:    slot,
			Name:    name,
			Value:   e.bank.Get(slot),
			Display: display,
		})
	}

	return s
}

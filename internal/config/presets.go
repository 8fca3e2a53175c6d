package config

import (
	"sort"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

var Presets = map[string]*Config{
	"cluster": {
		Scenario: ScenarioRandom, Bodies: 300, Seed: 1, Playing: true,
		Params: dynamo.Params{G: 1, Eps: 0.01, Dt: 0.001, Method: dynamo.Leapfrog},
		Speed:  1, Steps: 10000, FrameEvery: 10, FPS: 60,
	},
	"dense": {
		Scenario: ScenarioRandom, Bodies: 800, Seed: 7, Playing: true,
		Params: dynamo.Params{G: 1, Eps: 0.05, Dt: 0.0005, Method: dynamo.Leapfrog},
		Speed:  1, Steps: 5000, FrameEvery: 25, FPS: 30,
	},
	"binary": {
		Scenario: ScenarioBinary, Playing: true,
		Params: dynamo.Params{G: 1, Eps: 0, Dt: 0.01, Method: dynamo.Leapfrog},
		Speed:  4, Steps: 10000, FrameEvery: 10, FPS: 60,
	},
	"binary-rk4": {
		Scenario: ScenarioBinary, Playing: true,
		Params: dynamo.Params{G: 1, Eps: 0, Dt: 0.01, Method: dynamo.RK4},
		Speed:  4, Steps: 10000, FrameEvery: 10, FPS: 60,
	},
	"figure8": {
		Scenario: ScenarioFigure8, Playing: true,
		Params: dynamo.Params{G: 1, Eps: 0, Dt: 0.001, Method: dynamo.Leapfrog},
		Speed:  10, Steps: 20000, FrameEvery: 20, FPS: 60,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

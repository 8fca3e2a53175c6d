package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodylab/internal/config"
	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/metrics"
	"github.com/san-kum/nbodylab/internal/sim"
)

// simFlags are the scenario and parameter flags shared by run, live and
// compare. A preset seeds them, a config file replaces the preset, and
// flags given explicitly win over both.
type simFlags struct {
	preset     string
	configFile string
	scenario   string
	bodies     int
	seed       int64
	g          float64
	eps        float64
	dt         float64
	method     string
	steps      int
	speed      int
	frameEvery int
	fps        int
	paused     bool
}

func (f *simFlags) register(cmd *cobra.Command) {
	def := config.DefaultConfig()
	fl := cmd.Flags()
	fl.StringVar(&f.preset, "preset", "", "use preset configuration")
	fl.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fl.StringVar(&f.scenario, "scenario", def.Scenario, "initial bodies: random, binary, figure8")
	fl.IntVar(&f.bodies, "bodies", def.Bodies, "number of bodies (random scenario)")
	fl.Int64Var(&f.seed, "seed", def.Seed, "random seed")
	fl.Float64Var(&f.g, "g", def.Params.G, "gravitational constant")
	fl.Float64Var(&f.eps, "eps", def.Params.Eps, "softening length")
	fl.Float64Var(&f.dt, "dt", def.Params.Dt, "timestep")
	fl.StringVar(&f.method, "method", def.Params.Method.String(), "integrator: leapfrog, rk4")
	fl.IntVar(&f.steps, "steps", def.Steps, "steps to run (headless)")
	fl.IntVar(&f.speed, "speed", def.Speed, "steps per display refresh (live)")
	fl.IntVar(&f.frameEvery, "frame-every", def.FrameEvery, "steps between recorded frames")
	fl.IntVar(&f.fps, "fps", def.FPS, "display refresh rate (live)")
	fl.BoolVar(&f.paused, "paused", false, "start paused (live)")
}

func (f *simFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("scenario") {
		cfg.Scenario = f.scenario
	}
	if fl.Changed("bodies") {
		cfg.Bodies = f.bodies
	}
	if fl.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fl.Changed("g") {
		cfg.Params.G = f.g
	}
	if fl.Changed("eps") {
		cfg.Params.Eps = f.eps
	}
	if fl.Changed("dt") {
		cfg.Params.Dt = f.dt
	}
	if fl.Changed("method") {
		m, err := dynamo.ParseMethod(f.method)
		if err != nil {
			return nil, err
		}
		cfg.Params.Method = m
	}
	if fl.Changed("steps") {
		cfg.Steps = f.steps
	}
	if fl.Changed("speed") {
		cfg.Speed = f.speed
	}
	if fl.Changed("frame-every") {
		cfg.FrameEvery = f.frameEvery
	}
	if fl.Changed("fps") {
		cfg.FPS = f.fps
	}
	if fl.Changed("paused") {
		cfg.Playing = !f.paused
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Bodies:     cfg.InitialBodies(),
		Params:     cfg.Params,
		Steps:      cfg.Steps,
		FrameEvery: cfg.FrameEvery,
	}
}

func driftMetrics() []sim.Metric {
	return []sim.Metric{metrics.NewEnergyDrift()}
}

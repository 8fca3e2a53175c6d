package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// Metric is fed the diagnostics of every collected frame.
type Metric interface {
	Name() string
	Observe(en dynamo.Energies)
	Value() float64
	Reset()
}

// Config describes one headless run: Steps integrator steps from Bodies,
// with a frame collected every FrameEvery steps and once at the start.
type Config struct {
	Bodies     []dynamo.Body
	Params     dynamo.Params
	Steps      int
	FrameEvery int
}

func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if c.FrameEvery < 1 {
		return fmt.Errorf("frame interval must be at least 1, got %d", c.FrameEvery)
	}
	return nil
}

type Result struct {
	Frames     []dynamo.Frame
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    time.Duration
}

// DriftSeries is |E - E0| / |E0| for each frame, or zeros when E0 is zero.
func (r *Result) DriftSeries() []float64 {
	out := make([]float64, len(r.Frames))
	if len(r.Frames) == 0 {
		return out
	}
	e0 := r.Frames[0].Energies.E
	if e0 == 0 {
		return out
	}
	for i, f := range r.Frames {
		out[i] = math.Abs(f.Energies.E-e0) / math.Abs(e0)
	}
	return out
}

func (r *Result) FinalDrift() float64 {
	s := r.DriftSeries()
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func (r *Result) Initial() dynamo.Energies {
	if len(r.Frames) == 0 {
		return dynamo.Energies{}
	}
	return r.Frames[0].Energies
}

func (r *Result) Final() dynamo.Energies {
	if len(r.Frames) == 0 {
		return dynamo.Energies{}
	}
	return r.Frames[len(r.Frames)-1].Energies
}

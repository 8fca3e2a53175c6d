package sim

import (
	"math"
	"testing"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

func TestDriftSeries(t *testing.T) {
	r := &Result{Frames: []dynamo.Frame{
		{Energies: dynamo.Energies{E: -2}},
		{Energies: dynamo.Energies{E: -2.2}},
		{Energies: dynamo.Energies{E: -1.9}},
	}}

	want := []float64{0, 0.1, 0.05}
	got := r.DriftSeries()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("drift[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if math.Abs(r.FinalDrift()-0.05) > 1e-12 {
		t.Errorf("final drift = %v, want 0.05", r.FinalDrift())
	}
	if r.Final().E != -1.9 || r.Initial().E != -2 {
		t.Errorf("unexpected endpoints %+v %+v", r.Initial(), r.Final())
	}
}

func TestDriftSeriesDegenerate(t *testing.T) {
	empty := &Result{}
	if len(empty.DriftSeries()) != 0 || empty.FinalDrift() != 0 {
		t.Error("empty result should have no drift")
	}
	if empty.Final() != (dynamo.Energies{}) {
		t.Error("empty result should report zero energies")
	}

	zero := &Result{Frames: []dynamo.Frame{{}, {Energies: dynamo.Energies{E: 1}}}}
	if zero.FinalDrift() != 0 {
		t.Error("zero initial energy should report zero drift")
	}
}

func TestConfigValidate(t *testing.T) {
	ok := Config{Params: dynamo.DefaultParams(), Steps: 0, FrameEvery: 1}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid config: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad params", Config{Params: dynamo.Params{Dt: 1}, FrameEvery: 1}},
		{"negative steps", Config{Params: dynamo.DefaultParams(), Steps: -5, FrameEvery: 1}},
		{"zero interval", Config{Params: dynamo.DefaultParams(), FrameEvery: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

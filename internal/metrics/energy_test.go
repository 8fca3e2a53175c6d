package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(dynamo.Energies{E: -2.0})
	if m.Value() != 0 {
		t.Errorf("expected zero drift after first sample, got %f", m.Value())
	}

	m.Observe(dynamo.Energies{E: -2.2})
	m.Observe(dynamo.Energies{E: -2.1})

	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected max drift 0.1, got %f", m.Value())
	}
	if math.Abs(m.Current()-0.05) > 1e-12 {
		t.Errorf("expected current drift 0.05, got %f", m.Current())
	}
	if m.Samples() != 3 {
		t.Errorf("expected 3 samples, got %d", m.Samples())
	}
}

func TestEnergyDriftZeroInitial(t *testing.T) {
	m := NewEnergyDrift()
	m.Observe(dynamo.Energies{E: 0})
	m.Observe(dynamo.Energies{E: 1})
	if m.Value() != 0 {
		t.Errorf("drift relative to zero energy should report 0, got %f", m.Value())
	}
}

func TestEnergyDriftReset(t *testing.T) {
	m := NewEnergyDrift()
	m.Observe(dynamo.Energies{E: 1})
	m.Observe(dynamo.Energies{E: 2})
	if m.Value() == 0 {
		t.Error("expected non-zero drift")
	}

	m.Reset()
	if m.Value() != 0 || m.Samples() != 0 {
		t.Error("expected zero drift after reset")
	}
	m.Observe(dynamo.Energies{E: 5})
	if m.Initial() != 5 {
		t.Errorf("expected new baseline 5, got %f", m.Initial())
	}
}

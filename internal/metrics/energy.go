package metrics

import (
	"math"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// EnergyDrift tracks relative total-energy drift against the first
// observation since the last Reset.
type EnergyDrift struct {
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(en dynamo.Energies) {
	if e.samples == 0 {
		e.initialEnergy = en.E
	}
	e.currentEnergy = en.E
	e.samples++
	e.maxDrift = math.Max(e.maxDrift, e.Current())
}

// Current is |E - E0| / |E0| for the latest observation.
func (e *EnergyDrift) Current() float64 {
	if e.samples == 0 || e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

// Value is the largest relative drift seen.
func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Initial() float64 { return e.initialEnergy }

func (e *EnergyDrift) Samples() int { return e.samples }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

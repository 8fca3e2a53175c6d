package integrators

import (
	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/physics"
)

// Leapfrog is the kick-drift-kick velocity Verlet scheme. It is symplectic
// and time-reversible, so total energy oscillates without secular drift.
// Two force evaluations per step.
type Leapfrog struct {
	pos    []dynamo.Vec2
	masses []float64
	acc    []dynamo.Vec2
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) ensureScratch(n int) {
	if len(l.pos) != n {
		l.pos = make([]dynamo.Vec2, n)
		l.masses = make([]float64, n)
		l.acc = make([]dynamo.Vec2, n)
	}
}

func (l *Leapfrog) Step(s *dynamo.Store, p dynamo.Params) {
	b := s.Bodies
	n := len(b)
	l.ensureScratch(n)
	dt := p.Dt
	halfDt := 0.5 * dt

	for i := range b {
		l.pos[i] = b[i].Pos
		l.masses[i] = b[i].Mass
	}
	a1 := physics.Accelerations(l.pos, l.masses, p.G, p.Eps, l.acc)

	for i := range b {
		b[i].Vel = b[i].Vel.Add(a1[i].Scale(halfDt))
		b[i].Pos = b[i].Pos.Add(b[i].Vel.Scale(dt))
		l.pos[i] = b[i].Pos
	}

	a2 := physics.Accelerations(l.pos, l.masses, p.G, p.Eps, l.acc)
	for i := range b {
		b[i].Vel = b[i].Vel.Add(a2[i].Scale(halfDt))
	}

	s.T += dt
}

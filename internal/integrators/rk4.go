package integrators

import (
	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/physics"
)

// RK4 is classical fourth-order Runge-Kutta over the coupled (position,
// velocity) state. Four force evaluations per step. It is not symplectic:
// energy drifts slowly over long runs.
type RK4 struct {
	x0, v0         []dynamo.Vec2
	a1, a2, a3, a4 []dynamo.Vec2
	scratch        []dynamo.Vec2
	masses         []float64
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.x0) != n {
		r.x0 = make([]dynamo.Vec2, n)
		r.v0 = make([]dynamo.Vec2, n)
		r.a1 = make([]dynamo.Vec2, n)
		r.a2 = make([]dynamo.Vec2, n)
		r.a3 = make([]dynamo.Vec2, n)
		r.a4 = make([]dynamo.Vec2, n)
		r.scratch = make([]dynamo.Vec2, n)
		r.masses = make([]float64, n)
	}
}

// Step evaluates, for k = 1..4 with stage velocities
//
//	v1 = v0, v2 = v0 + a1 dt/2, v3 = v0 + a2 dt/2, v4 = v0 + a3 dt
//
// the accelerations a_k at x0, x0 + v1 dt/2, x0 + v2 dt/2, x0 + v3 dt, then
// combines both derivatives with weights (1,2,2,1)/6.
func (r *RK4) Step(s *dynamo.Store, p dynamo.Params) {
	b := s.Bodies
	n := len(b)
	r.ensureScratch(n)
	dt := p.Dt
	halfDt := 0.5 * dt

	for i := range b {
		r.x0[i] = b[i].Pos
		r.v0[i] = b[i].Vel
		r.masses[i] = b[i].Mass
	}

	physics.Accelerations(r.x0, r.masses, p.G, p.Eps, r.a1)

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i].Add(r.v0[i].Scale(halfDt))
	}
	physics.Accelerations(r.scratch, r.masses, p.G, p.Eps, r.a2)

	for i := 0; i < n; i++ {
		v2 := r.v0[i].Add(r.a1[i].Scale(halfDt))
		r.scratch[i] = r.x0[i].Add(v2.Scale(halfDt))
	}
	physics.Accelerations(r.scratch, r.masses, p.G, p.Eps, r.a3)

	for i := 0; i < n; i++ {
		v3 := r.v0[i].Add(r.a2[i].Scale(halfDt))
		r.scratch[i] = r.x0[i].Add(v3.Scale(dt))
	}
	physics.Accelerations(r.scratch, r.masses, p.G, p.Eps, r.a4)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		v1 := r.v0[i]
		v2 := r.v0[i].Add(r.a1[i].Scale(halfDt))
		v3 := r.v0[i].Add(r.a2[i].Scale(halfDt))
		v4 := r.v0[i].Add(r.a3[i].Scale(dt))

		vsum := v1.Add(v2.Scale(2)).Add(v3.Scale(2)).Add(v4)
		asum := r.a1[i].Add(r.a2[i].Scale(2)).Add(r.a3[i].Scale(2)).Add(r.a4[i])

		b[i].Pos = r.x0[i].Add(vsum.Scale(dt6))
		b[i].Vel = r.v0[i].Add(asum.Scale(dt6))
	}

	s.T += dt
}

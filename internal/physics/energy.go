package physics

import (
	"math"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// Energies computes kinetic, softened potential and total energy at clock t.
// Each unordered pair contributes once to U.
func Energies(bodies []dynamo.Body, t, G, eps float64) dynamo.Energies {
	ke, pe := 0.0, 0.0
	eps2 := eps * eps
	n := len(bodies)

	for i := 0; i < n; i++ {
		bi := bodies[i]
		ke += 0.5 * bi.Mass * bi.Vel.Norm2()

		for j := i + 1; j < n; j++ {
			d := math.Sqrt(bodies[j].Pos.Sub(bi.Pos).Norm2() + eps2)
			pe -= G * bi.Mass * bodies[j].Mass / d
		}
	}

	return dynamo.Energies{T: t, K: ke, U: pe, E: ke + pe}
}

// Momentum returns Σ m_i v_i.
func Momentum(bodies []dynamo.Body) dynamo.Vec2 {
	var p dynamo.Vec2
	for _, b := range bodies {
		p = p.Add(b.Vel.Scale(b.Mass))
	}
	return p
}

// AngularMomentum returns Σ m_i (x_i v_y,i - y_i v_x,i) about the origin.
func AngularMomentum(bodies []dynamo.Body) float64 {
	L := 0.0
	for _, b := range bodies {
		L += b.Mass * (b.Pos.X*b.Vel.Y - b.Pos.Y*b.Vel.X)
	}
	return L
}

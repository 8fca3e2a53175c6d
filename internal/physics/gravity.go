package physics

import (
	"math"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// Accelerations evaluates softened Newtonian gravity for every body:
//
//	a_i = G * Σ_{j≠i} m_j (p_j - p_i) / (|p_j - p_i|² + eps²)^{3/2}
//
// pos may be any candidate position set (RK4 stages pass predicted
// positions). Each pair is evaluated from both sides. The result is written
// into out, which is grown when too short, and returned.
func Accelerations(pos []dynamo.Vec2, masses []float64, G, eps float64, out []dynamo.Vec2) []dynamo.Vec2 {
	n := len(pos)
	if cap(out) < n {
		out = make([]dynamo.Vec2, n)
	}
	out = out[:n]
	eps2 := eps * eps

	for i := 0; i < n; i++ {
		pi := pos[i]
		ax, ay := 0.0, 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			rx := pos[j].X - pi.X
			ry := pos[j].Y - pi.Y
			r2 := rx*rx + ry*ry + eps2
			invR3 := 1.0 / (math.Sqrt(r2) * r2)
			s := G * masses[j] * invR3
			ax += s * rx
			ay += s * ry
		}
		out[i] = dynamo.Vec2{X: ax, Y: ay}
	}

	return out
}

// BodyAccelerations is Accelerations over the live positions of bodies.
func BodyAccelerations(bodies []dynamo.Body, G, eps float64) []dynamo.Vec2 {
	pos := make([]dynamo.Vec2, len(bodies))
	masses := make([]float64, len(bodies))
	for i, b := range bodies {
		pos[i] = b.Pos
		masses[i] = b.Mass
	}
	return Accelerations(pos, masses, G, eps, nil)
}

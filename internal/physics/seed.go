package physics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

const (
	seedRadius   = 1.2
	seedVelRange = 0.25
)

// RandomBodies scatters n equal-mass bodies over a disc of radius 1.2 with
// small random velocities, then removes the net momentum. Total mass is 1.
func RandomBodies(rng *rand.Rand, n int) []dynamo.Body {
	if n <= 0 {
		return []dynamo.Body{}
	}
	out := make([]dynamo.Body, n)
	mass := 1.0 / float64(n)

	for i := range out {
		r := math.Sqrt(rng.Float64()) * seedRadius
		th := rng.Float64() * 2 * math.Pi
		out[i] = dynamo.Body{
			Pos:   dynamo.V(r*math.Cos(th), r*math.Sin(th)),
			Vel:   dynamo.V((rng.Float64()-0.5)*seedVelRange, (rng.Float64()-0.5)*seedVelRange),
			Mass:  mass,
			Color: hueColor(i, n),
		}
	}

	ZeroMomentum(out)
	return out
}

// ZeroMomentum shifts every velocity by the centre-of-mass velocity so that
// Σ m_i v_i = 0.
func ZeroMomentum(bodies []dynamo.Body) {
	var p dynamo.Vec2
	M := 0.0
	for _, b := range bodies {
		p = p.Add(b.Vel.Scale(b.Mass))
		M += b.Mass
	}
	if M == 0 {
		return
	}
	vcm := p.Scale(1 / M)
	for i := range bodies {
		bodies[i].Vel = bodies[i].Vel.Sub(vcm)
	}
}

// CircularBinary places two bodies of mass 0.5 at (±0.5, 0) on a circular
// orbit about the origin for gravitational constant G, ignoring softening.
func CircularBinary(G float64) []dynamo.Body {
	v := 0.5 * math.Sqrt(G)
	return []dynamo.Body{
		{Pos: dynamo.V(-0.5, 0), Vel: dynamo.V(0, -v), Mass: 0.5, Color: hueColor(0, 2)},
		{Pos: dynamo.V(0.5, 0), Vel: dynamo.V(0, v), Mass: 0.5, Color: hueColor(1, 2)},
	}
}

// FigureEight returns the Chenciner-Montgomery three-body choreography
// for G = 1 and unit masses.
func FigureEight() []dynamo.Body {
	p1 := dynamo.V(0.97000436, -0.24308753)
	v3 := dynamo.V(-0.93240737, -0.86473146)
	return []dynamo.Body{
		{Pos: p1, Vel: v3.Scale(-0.5), Mass: 1, Color: hueColor(0, 3)},
		{Pos: p1.Scale(-1), Vel: v3.Scale(-0.5), Mass: 1, Color: hueColor(1, 3)},
		{Pos: dynamo.V(0, 0), Vel: v3, Mass: 1, Color: hueColor(2, 3)},
	}
}

func hueColor(i, n int) string {
	return fmt.Sprintf("hsl(%d 70%% 60%%)", i*360/n)
}

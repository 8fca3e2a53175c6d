package physics

import (
	"math"
	"testing"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

func TestAccelerationsSingleBody(t *testing.T) {
	a := Accelerations([]dynamo.Vec2{{X: 3, Y: -2}}, []float64{5}, 1, 0, nil)
	if len(a) != 1 {
		t.Fatalf("expected 1 acceleration, got %d", len(a))
	}
	if a[0] != (dynamo.Vec2{}) {
		t.Errorf("expected zero self-force, got %+v", a[0])
	}
}

func TestAccelerationsPair(t *testing.T) {
	pos := []dynamo.Vec2{{X: 0, Y: 0}, {X: 2, Y: 0}}
	masses := []float64{1, 3}
	a := Accelerations(pos, masses, 1, 0, nil)

	if math.Abs(a[0].X-0.75) > 1e-12 || a[0].Y != 0 {
		t.Errorf("body 0: expected (0.75, 0), got %+v", a[0])
	}
	if math.Abs(a[1].X+0.25) > 1e-12 || a[1].Y != 0 {
		t.Errorf("body 1: expected (-0.25, 0), got %+v", a[1])
	}

	// Newton's third law: m0 a0 + m1 a1 = 0
	fx := masses[0]*a[0].X + masses[1]*a[1].X
	if math.Abs(fx) > 1e-12 {
		t.Errorf("net force should vanish, got %g", fx)
	}
}

func TestAccelerationsZeroSeparation(t *testing.T) {
	pos := []dynamo.Vec2{{X: 1, Y: 1}, {X: 1, Y: 1}}
	a := Accelerations(pos, []float64{1, 1}, 1, 0.01, nil)
	for i, v := range a {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			t.Errorf("body %d: softened acceleration should be finite, got %+v", i, v)
		}
	}
}

func TestAccelerationsSofteningLimit(t *testing.T) {
	const (
		G = 1.0
		m = 2.0
		r = 10.0
	)
	pos := []dynamo.Vec2{{X: 0, Y: 0}, {X: r, Y: 0}}
	masses := []float64{1, m}
	newton := G * m / (r * r)

	prevErr := math.Inf(1)
	for _, eps := range []float64{1, 0.1, 0.01, 0.001, 1e-6} {
		a := Accelerations(pos, masses, G, eps, nil)
		mag := math.Sqrt(a[0].Norm2())
		err := math.Abs(mag-newton) / newton
		if err > prevErr {
			t.Errorf("eps=%g: error %g did not shrink (previous %g)", eps, err, prevErr)
		}
		prevErr = err
	}
	if prevErr > 1e-9 {
		t.Errorf("expected convergence to G*m/r^2, final relative error %g", prevErr)
	}
}

func TestAccelerationsReusesBuffer(t *testing.T) {
	buf := make([]dynamo.Vec2, 8)
	pos := []dynamo.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	out := Accelerations(pos, []float64{1, 1, 1}, 1, 0.1, buf)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if &out[0] != &buf[0] {
		t.Error("expected output to reuse the provided buffer")
	}
}

func TestBodyAccelerationsMatches(t *testing.T) {
	bodies := FigureEight()
	a := BodyAccelerations(bodies, 1, 0.05)
	pos := []dynamo.Vec2{bodies[0].Pos, bodies[1].Pos, bodies[2].Pos}
	b := Accelerations(pos, []float64{1, 1, 1}, 1, 0.05, nil)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("body %d: %+v != %+v", i, a[i], b[i])
		}
	}
}

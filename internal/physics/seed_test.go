package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

func TestRandomBodiesMomentumZeroed(t *testing.T) {
	for _, n := range []int{2, 3, 10, 300} {
		rng := rand.New(rand.NewSource(int64(n)))
		bodies := RandomBodies(rng, n)

		if len(bodies) != n {
			t.Fatalf("n=%d: got %d bodies", n, len(bodies))
		}
		p := Momentum(bodies)
		if math.Abs(p.X) > 1e-12 || math.Abs(p.Y) > 1e-12 {
			t.Errorf("n=%d: net momentum should vanish, got %+v", n, p)
		}
	}
}

func TestRandomBodiesLayout(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	bodies := RandomBodies(rng, 50)

	total := 0.0
	for i, b := range bodies {
		if !b.IsValid() {
			t.Errorf("body %d invalid: %+v", i, b)
		}
		if r := math.Sqrt(b.Pos.Norm2()); r > seedRadius+1e-12 {
			t.Errorf("body %d outside seed disc: r=%f", i, r)
		}
		if b.Color == "" {
			t.Errorf("body %d has no colour", i)
		}
		total += b.Mass
	}
	if math.Abs(total-1) > 1e-12 {
		t.Errorf("expected total mass 1, got %f", total)
	}
}

func TestRandomBodiesDeterministic(t *testing.T) {
	a := RandomBodies(rand.New(rand.NewSource(7)), 20)
	b := RandomBodies(rand.New(rand.NewSource(7)), 20)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("body %d differs for the same seed", i)
		}
	}
}

func TestRandomBodiesEmpty(t *testing.T) {
	if got := RandomBodies(rand.New(rand.NewSource(1)), 0); len(got) != 0 {
		t.Errorf("expected no bodies, got %d", len(got))
	}
}

func TestSingleBodyAtRest(t *testing.T) {
	bodies := RandomBodies(rand.New(rand.NewSource(3)), 1)
	if bodies[0].Vel != (dynamo.Vec2{}) {
		t.Errorf("lone body should be at rest after momentum zeroing, got %+v", bodies[0].Vel)
	}
}

func TestScenarioMomentum(t *testing.T) {
	for name, bodies := range map[string][]dynamo.Body{
		"binary":  CircularBinary(1),
		"figure8": FigureEight(),
	} {
		p := Momentum(bodies)
		if math.Abs(p.X) > 1e-8 || math.Abs(p.Y) > 1e-8 {
			t.Errorf("%s: net momentum should vanish, got %+v", name, p)
		}
	}
}

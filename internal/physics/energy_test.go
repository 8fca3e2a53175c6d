package physics

import (
	"math"
	"testing"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

func TestEnergiesTwoBody(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: dynamo.V(0, 0), Vel: dynamo.V(1, 0), Mass: 2},
		{Pos: dynamo.V(3, 4), Vel: dynamo.V(0, -2), Mass: 1},
	}
	e := Energies(bodies, 1.5, 1, 0)

	if e.T != 1.5 {
		t.Errorf("expected t=1.5, got %f", e.T)
	}
	if math.Abs(e.K-3.0) > 1e-12 {
		t.Errorf("expected K=3, got %f", e.K)
	}
	if math.Abs(e.U-(-0.4)) > 1e-12 {
		t.Errorf("expected U=-0.4, got %f", e.U)
	}
	if math.Abs(e.E-(e.K+e.U)) > 1e-15 {
		t.Errorf("E should equal K+U, got %f", e.E)
	}
}

func TestEnergiesSoftened(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: dynamo.V(0, 0), Mass: 1},
		{Pos: dynamo.V(0, 0), Mass: 1},
	}
	e := Energies(bodies, 0, 1, 0.5)
	if math.Abs(e.U-(-2.0)) > 1e-12 {
		t.Errorf("expected U=-1/eps=-2, got %f", e.U)
	}
}

func TestEnergiesPairsCountedOnce(t *testing.T) {
	bodies := []dynamo.Body{
		{Pos: dynamo.V(0, 0), Mass: 1},
		{Pos: dynamo.V(1, 0), Mass: 1},
		{Pos: dynamo.V(2, 0), Mass: 1},
	}
	e := Energies(bodies, 0, 1, 0)
	want := -(1.0 + 1.0 + 0.5)
	if math.Abs(e.U-want) > 1e-12 {
		t.Errorf("expected U=%f, got %f", want, e.U)
	}
}

func TestAngularMomentumBinary(t *testing.T) {
	L := AngularMomentum(CircularBinary(1))
	if math.Abs(L-0.25) > 1e-12 {
		t.Errorf("expected L=0.25, got %f", L)
	}
}

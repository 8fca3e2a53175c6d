package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// Body is one simulated point mass. Color is carried for renderers and is
// never read by the integrators.
type Body struct {
	Pos   Vec2    `json:"pos"`
	Vel   Vec2    `json:"vel"`
	Mass  float64 `json:"mass"`
	Color string  `json:"color,omitempty"`
}

func (b Body) IsValid() bool {
	for _, v := range [...]float64{b.Pos.X, b.Pos.Y, b.Vel.X, b.Vel.Y, b.Mass} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Mass > 0
}

// CloneBodies returns a deep copy of bodies.
func CloneBodies(bodies []Body) []Body {
	c := make([]Body, len(bodies))
	copy(c, bodies)
	return c
}

// Store is the mutable body store plus the simulation clock.
type Store struct {
	Bodies []Body
	T      float64
}

// Reset swaps in a new body set and zeroes the clock.
func (s *Store) Reset(bodies []Body) {
	s.Bodies = bodies
	s.T = 0
}

func (s *Store) Len() int { return len(s.Bodies) }

type Method int

const (
	Leapfrog Method = iota
	RK4
)

func (m Method) String() string {
	switch m {
	case Leapfrog:
		return "leapfrog"
	case RK4:
		return "rk4"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod accepts the names produced by Method.String, case-insensitively,
// plus "verlet" and "kdk" as aliases for Leapfrog.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leapfrog", "verlet", "kdk":
		return Leapfrog, nil
	case "rk4":
		return RK4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

func (m Method) MarshalText() ([]byte, error) {
	if m != Leapfrog && m != RK4 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Params are the physical and numerical knobs owned by the engine.
type Params struct {
	G      float64 `json:"G" yaml:"g"`
	Eps    float64 `json:"eps" yaml:"eps"`
	Dt     float64 `json:"dt" yaml:"dt"`
	Method Method  `json:"method" yaml:"method"`
}

func DefaultParams() Params {
	return Params{G: 1, Eps: 0.01, Dt: 0.001, Method: Leapfrog}
}

func (p Params) Validate() error {
	switch {
	case !(p.G > 0) || math.IsInf(p.G, 0):
		return fmt.Errorf("%w: G must be positive, got %g", ErrInvalidParams, p.G)
	case !(p.Dt > 0) || math.IsInf(p.Dt, 0):
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidParams, p.Dt)
	case !(p.Eps >= 0) || math.IsInf(p.Eps, 0):
		return fmt.Errorf("%w: eps must be non-negative, got %g", ErrInvalidParams, p.Eps)
	case p.Method != Leapfrog && p.Method != RK4:
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(p.Method))
	}
	return nil
}

// PartialParams is a sparse patch; nil fields are left untouched by Merge.
type PartialParams struct {
	G      *float64 `json:"G,omitempty"`
	Eps    *float64 `json:"eps,omitempty"`
	Dt     *float64 `json:"dt,omitempty"`
	Method *Method  `json:"method,omitempty"`
}

func (p Params) Merge(patch PartialParams) Params {
	if patch.G != nil {
		p.G = *patch.G
	}
	if patch.Eps != nil {
		p.Eps = *patch.Eps
	}
	if patch.Dt != nil {
		p.Dt = *patch.Dt
	}
	if patch.Method != nil {
		p.Method = *patch.Method
	}
	return p
}

func (p PartialParams) IsEmpty() bool {
	return p.G == nil && p.Eps == nil && p.Dt == nil && p.Method == nil
}

// Energies is the diagnostic tuple reported with each frame.
type Energies struct {
	T float64 `json:"t"`
	K float64 `json:"K"`
	U float64 `json:"U"`
	E float64 `json:"E"`
}

// Frame is an immutable snapshot sent to renderers. Positions holds
// x0,y0,x1,y1,... in body-store order.
type Frame struct {
	Positions []float64 `json:"positions"`
	Energies  Energies  `json:"energies"`
}

func (f Frame) NumBodies() int { return len(f.Positions) / 2 }

// Stepper advances a store by one fixed step of p.Dt.
type Stepper interface {
	Step(s *Store, p Params)
}

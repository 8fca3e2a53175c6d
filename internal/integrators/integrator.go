package integrators

import (
	"fmt"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// New returns a fresh stepper for method.
func New(method dynamo.Method) (dynamo.Stepper, error) {
	switch method {
	case dynamo.Leapfrog:
		return NewLeapfrog(), nil
	case dynamo.RK4:
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownMethod, method)
	}
}

// Set holds one stepper per method so scratch buffers survive method
// switches. Selection is re-read on every call.
type Set struct {
	leapfrog *Leapfrog
	rk4      *RK4
}

func NewSet() *Set {
	return &Set{leapfrog: NewLeapfrog(), rk4: NewRK4()}
}

func (s *Set) For(method dynamo.Method) dynamo.Stepper {
	if method == dynamo.RK4 {
		return s.rk4
	}
	return s.leapfrog
}

// Step advances st once with the stepper selected by p.Method.
func (s *Set) Step(st *dynamo.Store, p dynamo.Params) {
	s.For(p.Method).Step(st, p)
}

package engine

import (
	"fmt"
	"math"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// Command is one inbound control message. The set is closed: Initialize,
// UpdateParameters, ReplaceBodies, SetPlaying and Step.
type Command interface {
	Name() string
	command()
}

// Initialize replaces bodies and parameters and resets the clock.
type Initialize struct {
	Bodies []dynamo.Body
	Params dynamo.Params
}

// UpdateParameters merges the non-nil fields of Params.
type UpdateParameters struct {
	Params dynamo.PartialParams
}

// ReplaceBodies swaps the body set and resets the clock, keeping parameters.
type ReplaceBodies struct {
	Bodies []dynamo.Body
}

// SetPlaying gates the heartbeat.
type SetPlaying struct {
	Playing bool
}

// Step runs Count integrator steps regardless of the playing flag. A zero
// Count means one step.
type Step struct {
	Count int
}

func (Initialize) Name() string       { return "init" }
func (UpdateParameters) Name() string { return "updateParams" }
func (ReplaceBodies) Name() string    { return "replaceBodies" }
func (SetPlaying) Name() string       { return "play" }
func (Step) Name() string             { return "step" }

func (Initialize) command()       {}
func (UpdateParameters) command() {}
func (ReplaceBodies) command()    {}
func (SetPlaying) command()       {}
func (Step) command()             {}

// barrier is queued by Sync and never reaches the simulation.
type barrier struct {
	done chan struct{}
}

func (barrier) Name() string { return "sync" }
func (barrier) command()     {}

func (s Step) steps() int {
	if s.Count == 0 {
		return 1
	}
	return s.Count
}

// Validate rejects commands that would put the engine into an invalid
// configuration. It is applied by Send before anything is enqueued.
func Validate(cmd Command) error {
	var err error
	switch c := cmd.(type) {
	case Initialize:
		if err = c.Params.Validate(); err == nil {
			err = validateBodies(c.Bodies)
		}
	case UpdateParameters:
		err = validatePatch(c.Params)
	case ReplaceBodies:
		err = validateBodies(c.Bodies)
	case SetPlaying:
	case Step:
		if c.Count < 0 {
			err = fmt.Errorf("%w: got %d", dynamo.ErrInvalidStepCount, c.Count)
		}
	default:
		return fmt.Errorf("%w: %T", dynamo.ErrUnknownCommand, cmd)
	}
	if err != nil {
		return &dynamo.CommandError{Command: cmd.Name(), Wrapped: err}
	}
	return nil
}

func validateBodies(bodies []dynamo.Body) error {
	for i, b := range bodies {
		if !b.IsValid() {
			return fmt.Errorf("%w: body %d (mass %g)", dynamo.ErrInvalidBody, i, b.Mass)
		}
	}
	return nil
}

func validatePatch(p dynamo.PartialParams) error {
	if p.G != nil && (!(*p.G > 0) || math.IsInf(*p.G, 0)) {
		return fmt.Errorf("%w: G must be positive, got %g", dynamo.ErrInvalidParams, *p.G)
	}
	if p.Dt != nil && (!(*p.Dt > 0) || math.IsInf(*p.Dt, 0)) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParams, *p.Dt)
	}
	if p.Eps != nil && (!(*p.Eps >= 0) || math.IsInf(*p.Eps, 0)) {
		return fmt.Errorf("%w: eps must be non-negative, got %g", dynamo.ErrInvalidParams, *p.Eps)
	}
	if p.Method != nil && *p.Method != dynamo.Leapfrog && *p.Method != dynamo.RK4 {
		return fmt.Errorf("%w: %d", dynamo.ErrUnknownMethod, int(*p.Method))
	}
	return nil
}

// detach copies caller-owned slices so the worker never aliases them.
func detach(cmd Command) Command {
	switch c := cmd.(type) {
	case Initialize:
		c.Bodies = dynamo.CloneBodies(c.Bodies)
		return c
	case ReplaceBodies:
		c.Bodies = dynamo.CloneBodies(c.Bodies)
		return c
	case UpdateParameters:
		c.Params = clonePatch(c.Params)
		return c
	}
	return cmd
}

func clonePatch(p dynamo.PartialParams) dynamo.PartialParams {
	var out dynamo.PartialParams
	if p.G != nil {
		v := *p.G
		out.G = &v
	}
	if p.Eps != nil {
		v := *p.Eps
		out.Eps = &v
	}
	if p.Dt != nil {
		v := *p.Dt
		out.Dt = &v
	}
	if p.Method != nil {
		v := *p.Method
		out.Method = &v
	}
	return out
}

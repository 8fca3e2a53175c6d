// Package dynamo provides the core value types shared by the n-body engine.
//
// The package defines:
//
//   - [Vec2]: 2D vector arithmetic
//   - [Body] and [Store]: the body store and simulation clock
//   - [Params] and [PartialParams]: engine parameters and sparse patches
//   - [Frame] and [Energies]: the snapshot emitted to renderers
//   - [Stepper]: the integrator interface
//
// # Example
//
//	st := &dynamo.Store{}
//	st.Reset(physics.RandomBodies(rng, 100))
//	stepper, _ := integrators.New(dynamo.Leapfrog)
//	stepper.Step(st, dynamo.DefaultParams())
//
// # Thread Safety
//
// Store is NOT thread-safe. It is owned by exactly one engine worker;
// other goroutines only ever see copied [Frame] values.
package dynamo

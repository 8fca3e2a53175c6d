// Package physics provides the gravitational model behind the engine.
//
//   - [Accelerations]: softened O(n²) pairwise gravity over any position set
//   - [Energies]: kinetic, potential and total energy diagnostics
//   - [RandomBodies], [CircularBinary], [FigureEight]: initial conditions,
//     all with zero net momentum
//
// # Energy Conservation
//
// Use [Energies] before and after a run to measure drift:
//
//	e0 := physics.Energies(st.Bodies, st.T, p.G, p.Eps)
//	integ.Step(st, p)
//	e1 := physics.Energies(st.Bodies, st.T, p.G, p.Eps)
package physics

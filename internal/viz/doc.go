// Package viz renders a running engine in the terminal.
//
// [Model] is a Bubble Tea program that consumes frames from an engine and
// turns keys into engine commands. Bodies are drawn on a braille
// [Canvas] through a pan and zoom [Camera]. The stats panel shows the
// clock, the energy diagnostics and an energy history chart.
//
// While playing, each display refresh asks for Speed-1 extra steps on top
// of the engine heartbeat.
//
// # Key Bindings
//
//	Space - Play/Pause
//	s     - Single step
//	r     - Reseed bodies
//	m     - Toggle leapfrog/rk4
//	[ ]   - Decrease/increase dt
//	< >   - Decrease/increase speed
//	+ -   - Zoom
//	0     - Reset camera
//	?     - Show help overlay
package viz

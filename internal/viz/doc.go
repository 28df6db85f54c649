// Package viz draws a running particle simulation in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one runner, coloured by particle speed
//   - [Canvas]: Braille-based pixel canvas with per-cell tint
//   - [Palette]: speed gradient built from the current [Theme]
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	.     - Single frame while paused
//	R     - Reset to the initial layout
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	+/-   - Raise/lower the FPS below which spawning pauses
//	?     - Show help overlay
//
// # Recording
//
// The G key records the session as a GIF in the current palette. The file
// is written to the current directory when recording stops.
package viz

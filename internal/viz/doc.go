// Package viz renders startup studies in the terminal.
//
//   - summary tables and comparisons styled with lipgloss
//   - line charts of any series column via asciigraph
//   - [Canvas]: Braille pixel canvas used by the replay view and SVG export
//   - [Replay]: Bubble Tea model that plays a stored run back in time
//
// # Replay Key Bindings
//
//	Space - Pause/Resume
//	←/→   - Step back/forward
//	+/-   - Playback speed
//	C     - Cycle the traced column
//	T     - Cycle color themes
//	R     - Restart
//	Q     - Quit
package viz

// Package viz renders sweeps and carriers in the terminal.
//
//   - [Progress]: Bubble Tea model following a running sweep
//   - [Canvas]: Braille canvas for detector cross sections
//   - [Waveform]: asciigraph plot of a current pulse
//
// # Key Bindings
//
//	Q, Ctrl+C - Cancel the sweep
//	Tab       - Cycle the displayed worker
package viz

// Package analysis extracts the quantities usually read off a TCT
// waveform: amplitude, polarity, collected charge, rise time and spectrum.
//
//   - [Summarize]: one-pass waveform summary
//   - [Spectrum]: single sided amplitude spectrum
//   - [TracePath]: drift trajectory of one carrier, for inspection
//
// # Example
//
//	s := analysis.Summarize(table.Waveform(v, 0, d), dt)
//	fmt.Printf("peak %.3g at %.3g s, charge %.3g\n", s.Peak, s.PeakTime, s.Charge)
package analysis

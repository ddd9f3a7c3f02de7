// Package carrier simulates a single electron or hole moving through a
// detector and records the current it induces on the readout electrode.
//
// A carrier starts in the [Generated] phase. If it sits in undepleted bulk
// with diffusion enabled it random-walks ([Diffusing]) until it enters the
// depleted layer or runs out of time. Inside the depleted layer it follows
// the drift field ([Drifting]) and contributes one Shockley-Ramo sample per
// time step until it leaves the detector or the window ends ([Exited]).
//
// Carrier is a plain value: each sweep worker owns its copies, so nothing
// here locks.
package carrier

// Package physics holds the material constants and carrier models shared by
// the transport engine.
//
// Units follow the detector geometry: lengths in micrometers, time in
// seconds, potentials in volts. Fields are therefore V/µm and mobilities
// µm²/(V·s).
//
//   - [Vec2]: planar position / field vector
//   - [Kind]: carrier species (electron or hole)
//   - [Mobility]: Jacoboni field-dependent drift mobility
//
// # Example
//
//	mu := physics.NewMobility(physics.Electron, 253)
//	v := mu.At(e.Norm()) * e.Norm()
package physics

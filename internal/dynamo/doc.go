// Package dynamo provides the ODE primitives the carrier transport engine is
// built on.
//
//   - [State]: vector representing a system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator
//
// Integrators keep scratch buffers between steps and are NOT safe for
// concurrent use; every sweep worker owns its own.
package dynamo

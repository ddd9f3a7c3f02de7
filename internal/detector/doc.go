// Package detector defines the contracts the transport engine uses to reach
// the electric and weighting fields of a sensor, and ships a closed-form
// planar diode that satisfies them.
//
// Field access from concurrent workers goes through a [FieldGuard]: bias
// changes and field recomputation are globally exclusive, evaluation is
// shared only for probes that declare reentrant reads.
package detector

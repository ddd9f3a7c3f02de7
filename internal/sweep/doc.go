// Package sweep runs the transport engine over a voltage x lateral x depth
// scan grid.
//
// The depth axis is split into contiguous blocks, one goroutine per block.
// Each worker builds its own detector and ensemble, so the only state they
// share is the [detector.FieldGuard] and the [ResultTable]. The table needs
// no lock: every (voltage, lateral, depth) slot belongs to exactly one
// worker, and Set refuses a second write to the same slot.
package sweep

package detector

import (
	"sync"

	"github.com/san-kum/tctsim/internal/physics"
)

// FieldGuard is the critical section around shared field state. One guard
// is shared by every worker of a sweep.
type FieldGuard struct {
	mu sync.RWMutex
}

func NewFieldGuard() *FieldGuard {
	return &FieldGuard{}
}

// Recompute applies a bias and rebuilds the fields of det while holding the
// exclusive lock.
func (g *FieldGuard) Recompute(det Detector, volts float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	det.SetBias(volts)
	return det.CalculateFields()
}

// Evaluate queries probe under the guard. Probes that report reentrant
// reads share the lock; all others are serialized.
func (g *FieldGuard) Evaluate(probe FieldProbe, pos physics.Vec2) (electric, weighting physics.Vec2) {
	if r, ok := probe.(ReentrantProbe); ok && r.ReentrantReads() {
		g.mu.RLock()
		defer g.mu.RUnlock()
	} else {
		g.mu.Lock()
		defer g.mu.Unlock()
	}
	return probe.Evaluate(pos)
}

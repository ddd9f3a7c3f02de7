package carrier

import (
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/dynamo"
	"github.com/san-kum/tctsim/internal/physics"
)

// DriftVelocity is the drift ODE dx/dt = sign * mu(|E|) * E(x). Field
// queries go through Guard when one is set.
type DriftVelocity struct {
	Sign     float64
	Mobility physics.Mobility
	Guard    *detector.FieldGuard
	Probe    detector.FieldProbe
}

func NewDriftVelocity(kind physics.Kind, temperature float64, guard *detector.FieldGuard, probe detector.FieldProbe) *DriftVelocity {
	return &DriftVelocity{
		Sign:     kind.Sign(),
		Mobility: physics.NewMobility(kind, temperature),
		Guard:    guard,
		Probe:    probe,
	}
}

func (d *DriftVelocity) field(pos physics.Vec2) (physics.Vec2, physics.Vec2) {
	if d.Guard == nil {
		return d.Probe.Evaluate(pos)
	}
	return d.Guard.Evaluate(d.Probe, pos)
}

func (d *DriftVelocity) Derive(x dynamo.State, t float64) dynamo.State {
	e, _ := d.field(physics.Vec2{X: x[0], Y: x[1]})
	mu := d.Mobility.At(e.Norm())
	return dynamo.State{d.Sign * mu * e.X, d.Sign * mu * e.Y}
}

func (d *DriftVelocity) StateDim() int { return 2 }

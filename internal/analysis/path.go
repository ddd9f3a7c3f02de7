package analysis

import (
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/dynamo"
	"github.com/san-kum/tctsim/internal/physics"
)

// Path is a drift trajectory sampled every dt.
type Path struct {
	Points []physics.Vec2
	Dt     float64
	Exited bool // left the bounds before the time limit
}

// TransitTime is the time spent inside the bounds.
func (p Path) TransitTime() float64 {
	if len(p.Points) == 0 {
		return 0
	}
	return float64(len(p.Points)-1) * p.Dt
}

// Length is the travelled distance along the path.
func (p Path) Length() float64 {
	l := 0.0
	for i := 1; i < len(p.Points); i++ {
		l += p.Points[i].Sub(p.Points[i-1]).Norm()
	}
	return l
}

// TracePath integrates sys from start until the trajectory leaves bounds or
// duration has elapsed. Diffusion is not applied.
func TracePath(sys dynamo.System, integ dynamo.Integrator, start physics.Vec2, bounds detector.Bounds, dt, duration float64) (Path, error) {
	p := Path{Dt: dt, Points: []physics.Vec2{start}}
	x := dynamo.State{start.X, start.Y}

	step := 0
	for t := 0.0; t < duration; t += dt {
		x = integ.Step(sys, x, t, dt)
		if !x.IsValid() {
			return p, dynamo.Invalid(step, t, x)
		}
		pos := physics.Vec2{X: x[0], Y: x[1]}
		if !bounds.Contains(pos) {
			p.Exited = true
			break
		}
		p.Points = append(p.Points, pos)
		step++
	}
	return p, nil
}

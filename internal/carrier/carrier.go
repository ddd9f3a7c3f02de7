package carrier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/dynamo"
	"github.com/san-kum/tctsim/internal/integrators"
	"github.com/san-kum/tctsim/internal/physics"
)

// Normal is a source of standard normal draws.
type Normal interface {
	NormFloat64() float64
}

// RandFactory builds an independent stream for one drift simulation.
type RandFactory func(seed int64) Normal

// DefaultRand seeds a math/rand source per carrier.
func DefaultRand(seed int64) Normal {
	return rand.New(rand.NewSource(seed))
}

// Env is what a carrier needs from its worker: a private detector, the
// shared field guard, and a private integrator.
type Env struct {
	Detector   detector.Detector
	Guard      *detector.FieldGuard
	Integrator dynamo.Integrator
	Rand       RandFactory
}

// Carrier is one generated charge and its drift state.
type Carrier struct {
	Kind    physics.Kind
	Charge  float64 // elementary charges, always positive
	Init    physics.Vec2
	GenTime float64
	Seed    int64

	Pos           physics.Vec2
	DiffusionTime float64
	Displacement  physics.Vec2
	Crossed       bool
	Phase         Phase
}

// New builds a carrier in the Generated phase at init.
func New(kind physics.Kind, charge float64, init physics.Vec2, genTime float64) Carrier {
	return Carrier{Kind: kind, Charge: charge, Init: init, GenTime: genTime, Pos: init}
}

// Samples is the waveform length for a window: floor(maxTime/dt).
func Samples(dt, maxTime float64) int {
	return int(math.Floor(maxTime / dt))
}

// SimulateDrift resets the carrier to its initial position plus the shift
// and returns the induced current for floor(maxTime/dt) steps of dt.
// Samples after the carrier leaves the detector stay zero.
func (c *Carrier) SimulateDrift(env Env, dt, maxTime, shiftX, shiftY float64) ([]float64, error) {
	if dt <= 0 || maxTime < 0 || math.IsNaN(maxTime) {
		return nil, fmt.Errorf("%w: dt %g, max time %g", dynamo.ErrParameterBounds, dt, maxTime)
	}

	det := env.Detector
	wave := make([]float64, Samples(dt, maxTime))

	c.Pos = c.Init.Add(physics.Vec2{X: shiftX, Y: shiftY})
	c.DiffusionTime = 0
	c.Displacement = physics.Vec2{}
	c.Crossed = false
	c.Phase = Generated
	if !c.Pos.IsFinite() {
		return nil, dynamo.Invalid(0, 0, dynamo.State{c.Pos.X, c.Pos.Y})
	}

	newRand := env.Rand
	if newRand == nil {
		newRand = DefaultRand
	}
	sys := NewDriftVelocity(c.Kind, det.Temperature(), env.Guard, det)
	w := walker{
		rng: newRand(c.Seed),
		mob: sys.Mobility,
		dt:  dt,
	}
	bounds := det.Bounds()
	depleted := det.DepletionWidth()
	lateral := func(p physics.Vec2) bool { return p.X > bounds.XMin && p.X < bounds.XMax }

	if det.DiffusionEnabled() && c.Pos.Y > depleted && c.Pos.Y < bounds.YMax && lateral(c.Pos) {
		c.Phase = Diffusing
		limit := 4 * det.TrappingTime()
		step := 0
		for c.DiffusionTime < limit && c.DiffusionTime < maxTime {
			if err := w.step(c, 0, step); err != nil {
				return nil, err
			}
			c.DiffusionTime += dt
			step++
			if c.Pos.Y < depleted && c.Pos.Y < bounds.YMax && lateral(c.Pos) {
				c.Crossed = true
				c.Phase = Drifting
				break
			}
		}
		if c.Phase == Diffusing {
			c.Phase = Exited
			return wave, nil
		}
	}

	if c.Pos.Y >= depleted {
		c.Phase = Exited
		return wave, nil
	}
	c.Phase = Drifting

	integ := env.Integrator
	if integ == nil {
		integ = integrators.NewRK4()
	}

	first := math.Round((c.GenTime + c.DiffusionTime) / dt)
	if math.IsNaN(first) || math.IsInf(first, 0) {
		return nil, dynamo.Invalid(0, c.GenTime, dynamo.State{c.GenTime, c.DiffusionTime})
	}
	if first >= float64(len(wave)) {
		// generated after the window closes
		c.Phase = Exited
		return wave, nil
	}
	start := int(math.Max(first, 0))

	x := dynamo.State{c.Pos.X, c.Pos.Y}
	field := 0.0
	t := 0.0
	for i := start; i < len(wave); i++ {
		if !bounds.Contains(c.Pos) {
			break
		}

		if det.DiffusionEnabled() {
			if err := w.step(c, field, i); err != nil {
				return nil, err
			}
			x[0], x[1] = c.Pos.X, c.Pos.Y
		}

		e, wf := sys.field(c.Pos)
		if !e.IsFinite() || !wf.IsFinite() {
			return nil, dynamo.Invalid(i, t, dynamo.State{e.X, e.Y, wf.X, wf.Y})
		}
		field = e.Norm()

		sample := c.Charge * c.Kind.Sign() * sys.Mobility.At(field) * e.Dot(wf)
		if math.IsNaN(sample) || math.IsInf(sample, 0) {
			return nil, dynamo.Invalid(i, t, x)
		}
		wave[i] = sample

		x = integ.Step(sys, x, t, dt)
		if !x.IsValid() {
			return nil, dynamo.Invalid(i, t, x)
		}
		c.Pos = physics.Vec2{X: x[0], Y: x[1]}
		t += dt
	}

	c.Phase = Exited
	return wave, nil
}

// walker applies gaussian diffusion steps of length sqrt(2 D dt), with D
// the Einstein coefficient at the local field.
type walker struct {
	rng Normal
	mob physics.Mobility
	dt  float64
}

func (w walker) step(c *Carrier, field float64, i int) error {
	l := math.Sqrt(2 * w.mob.DiffusionConstant(field) * w.dt)
	d := physics.Vec2{X: l * w.rng.NormFloat64(), Y: l * w.rng.NormFloat64()}

	c.Pos = c.Pos.Add(d)
	c.Displacement = c.Displacement.Add(d)
	if !c.Pos.IsFinite() {
		return dynamo.Invalid(i, float64(i)*w.dt, dynamo.State{c.Pos.X, c.Pos.Y})
	}
	return nil
}

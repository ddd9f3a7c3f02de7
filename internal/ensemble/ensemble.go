package ensemble

import (
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/dynamo"
	"github.com/san-kum/tctsim/internal/physics"
)

// Ensemble is the carrier population of one worker. It is not safe for
// concurrent use; the carriers' runtime state is rewritten on every drift.
type Ensemble struct {
	carriers []carrier.Carrier
	env      carrier.Env
	seed     int64
	centroid physics.Vec2
}

type Option func(*Ensemble)

func WithIntegrator(integ dynamo.Integrator) Option {
	return func(e *Ensemble) { e.env.Integrator = integ }
}

func WithRand(f carrier.RandFactory) Option {
	return func(e *Ensemble) { e.env.Rand = f }
}

// WithSeed sets the base seed; carrier i diffuses with seed base+i.
func WithSeed(seed int64) Option {
	return func(e *Ensemble) { e.seed = seed }
}

func New(det detector.Detector, guard *detector.FieldGuard, opts ...Option) *Ensemble {
	e := &Ensemble{env: carrier.Env{Detector: det, Guard: guard}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the carriers with the records read from r. On error the
// ensemble is left unchanged.
func (e *Ensemble) Load(r io.Reader) error {
	cs, err := Parse(r)
	if err != nil {
		return err
	}
	e.carriers = e.carriers[:0]
	e.Add(cs...)
	return nil
}

func (e *Ensemble) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open carrier file: %w", err)
	}
	defer f.Close()

	if err := e.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Add appends carriers, assigns their diffusion seeds and updates the
// centroid.
func (e *Ensemble) Add(cs ...carrier.Carrier) {
	for _, c := range cs {
		c.Seed = e.seed + int64(len(e.carriers))
		c.Pos = c.Init
		e.carriers = append(e.carriers, c)
	}

	e.centroid = physics.Vec2{}
	if len(e.carriers) == 0 {
		return
	}
	var sum physics.Vec2
	for _, c := range e.carriers {
		sum = sum.Add(c.Init)
	}
	n := float64(len(e.carriers))
	e.centroid = physics.Vec2{X: sum.X / n, Y: sum.Y / n}
}

// Centroid is the mean initial position of all carriers.
func (e *Ensemble) Centroid() physics.Vec2 { return e.centroid }

func (e *Ensemble) Len() int { return len(e.carriers) }

func (e *Ensemble) Counts() (electrons, holes int) {
	for _, c := range e.carriers {
		if c.Kind == physics.Electron {
			electrons++
		} else {
			holes++
		}
	}
	return electrons, holes
}

// Carriers returns a copy of the carrier list.
func (e *Ensemble) Carriers() []carrier.Carrier {
	out := make([]carrier.Carrier, len(e.carriers))
	copy(out, e.carriers)
	return out
}

func (e *Ensemble) Detector() detector.Detector { return e.env.Detector }

func (e *Ensemble) Guard() *detector.FieldGuard { return e.env.Guard }

// Currents are the summed electron and hole waveforms of one drift.
type Currents struct {
	Electron  []float64
	Hole      []float64
	Crossings int
}

// Total is the elementwise sum of both species.
func (c Currents) Total() []float64 {
	out := make([]float64, len(c.Electron))
	copy(out, c.Electron)
	floats.Add(out, c.Hole)
	return out
}

// SimulateDrift drifts every carrier shifted by (shiftX, shiftY) and applies
// the trapping decay exp(-t/tau) to both species.
func (e *Ensemble) SimulateDrift(dt, totalTime, shiftX, shiftY float64) (Currents, error) {
	n := carrier.Samples(dt, totalTime)
	if n < 0 {
		n = 0
	}
	cur := Currents{
		Electron: make([]float64, n),
		Hole:     make([]float64, n),
	}

	for i := range e.carriers {
		c := &e.carriers[i]
		wave, err := c.SimulateDrift(e.env, dt, totalTime, shiftX, shiftY)
		if err != nil {
			return Currents{}, fmt.Errorf("carrier %d (%s): %w", i, c.Kind, err)
		}
		if c.Kind == physics.Electron {
			floats.Add(cur.Electron, wave)
		} else {
			floats.Add(cur.Hole, wave)
		}
		if c.Crossed {
			cur.Crossings++
		}
	}

	decay := Decay(n, dt, e.env.Detector.TrappingTime())
	floats.Mul(cur.Electron, decay)
	floats.Mul(cur.Hole, decay)

	return cur, nil
}

// Decay returns exp(-i*dt/tau) for i in [0, n). An infinite tau yields ones.
func Decay(n int, dt, tau float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Exp(-float64(i) * dt / tau)
	}
	return out
}

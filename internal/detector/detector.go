package detector

import (
	"errors"

	"github.com/san-kum/tctsim/internal/physics"
)

var ErrInvalidGeometry = errors.New("detector: invalid geometry")

// FieldProbe answers point queries for the drift field (V/µm) and the
// weighting field (1/µm) at a position in µm.
type FieldProbe interface {
	Evaluate(pos physics.Vec2) (electric, weighting physics.Vec2)
}

// ReentrantProbe is implemented by probes whose Evaluate may run
// concurrently with other Evaluate calls.
type ReentrantProbe interface {
	ReentrantReads() bool
}

// Detector is everything a carrier needs from the sensor it drifts in.
type Detector interface {
	FieldProbe

	DepletionWidth() float64
	Bounds() Bounds
	Temperature() float64
	TrappingTime() float64
	DiffusionEnabled() bool
	TimeStep() float64

	Bias() float64
	SetBias(volts float64)
	CalculateFields() error
}

// Bounds is the simulated region of the detector. Points on the edge are
// inside.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

func (b Bounds) Contains(p physics.Vec2) bool {
	return p.X >= b.XMin && p.X <= b.XMax && p.Y >= b.YMin && p.Y <= b.YMax
}

func (b Bounds) Width() float64 { return b.XMax - b.XMin }

func (b Bounds) Depth() float64 { return b.YMax - b.YMin }

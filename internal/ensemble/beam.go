package ensemble

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/physics"
)

type BeamMode string

const (
	// EdgeBeam focuses the laser to a gaussian spot entering through the
	// polished side of the sensor.
	EdgeBeam BeamMode = "edge"
	// TopBeam illuminates from the front: gaussian across x, uniform
	// absorption through the whole depth.
	TopBeam BeamMode = "top"
)

var ErrInvalidBeam = errors.New("ensemble: invalid beam")

// GaussianBeam generates electron-hole pairs for a laser pulse.
type GaussianBeam struct {
	Mode    BeamMode
	Focus   physics.Vec2 // µm
	Waist   float64      // gaussian sigma, µm
	Pairs   int
	Charge  float64 // per carrier, elementary charges
	GenTime float64 // s
	Seed    int64
}

func (b GaussianBeam) Validate() error {
	switch {
	case b.Mode != EdgeBeam && b.Mode != TopBeam:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidBeam, b.Mode)
	case b.Waist < 0:
		return fmt.Errorf("%w: negative waist %g", ErrInvalidBeam, b.Waist)
	case b.Pairs < 1:
		return fmt.Errorf("%w: need at least one pair, got %d", ErrInvalidBeam, b.Pairs)
	case b.Charge <= 0:
		return fmt.Errorf("%w: charge must be positive, got %g", ErrInvalidBeam, b.Charge)
	}
	return nil
}

// Generate places Pairs electron-hole pairs inside bounds. Draws that land
// outside are retried, so every carrier starts in the detector.
func (b GaussianBeam) Generate(bounds detector.Bounds) ([]carrier.Carrier, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if !bounds.Contains(b.Focus) {
		return nil, fmt.Errorf("%w: focus %v outside detector", ErrInvalidBeam, b.Focus)
	}

	rng := rand.New(rand.NewSource(b.Seed))
	out := make([]carrier.Carrier, 0, 2*b.Pairs)
	for len(out) < 2*b.Pairs {
		var p physics.Vec2
		switch b.Mode {
		case EdgeBeam:
			p = physics.Vec2{
				X: b.Focus.X + b.Waist*rng.NormFloat64(),
				Y: b.Focus.Y + b.Waist*rng.NormFloat64(),
			}
		case TopBeam:
			p = physics.Vec2{
				X: b.Focus.X + b.Waist*rng.NormFloat64(),
				Y: bounds.YMin + rng.Float64()*bounds.Depth(),
			}
		}
		if !bounds.Contains(p) {
			continue
		}
		out = append(out,
			carrier.New(physics.Electron, b.Charge, p, b.GenTime),
			carrier.New(physics.Hole, b.Charge, p, b.GenTime))
	}
	return out, nil
}

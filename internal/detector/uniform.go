package detector

import (
	"math"

	"github.com/san-kum/tctsim/internal/physics"
)

// Uniform is a detector with a constant drift and weighting field over the
// depleted layer. It is useful for checking transport against hand
// calculations; SetBias only records the value.
type Uniform struct {
	Field     physics.Vec2
	Weighting physics.Vec2
	Depleted  float64
	Region    Bounds
	Temp      float64
	Trapping  float64
	Diffusion bool
	Dt        float64

	bias float64
}

func (u *Uniform) Evaluate(pos physics.Vec2) (physics.Vec2, physics.Vec2) {
	return u.Field, u.Weighting
}

func (u *Uniform) ReentrantReads() bool { return true }

func (u *Uniform) DepletionWidth() float64 { return u.Depleted }
func (u *Uniform) Bounds() Bounds          { return u.Region }
func (u *Uniform) Temperature() float64    { return u.Temp }
func (u *Uniform) DiffusionEnabled() bool  { return u.Diffusion }
func (u *Uniform) TimeStep() float64       { return u.Dt }
func (u *Uniform) Bias() float64           { return u.bias }
func (u *Uniform) SetBias(volts float64)   { u.bias = volts }
func (u *Uniform) CalculateFields() error  { return nil }

func (u *Uniform) TrappingTime() float64 {
	if u.Trapping <= 0 {
		return math.Inf(1)
	}
	return u.Trapping
}

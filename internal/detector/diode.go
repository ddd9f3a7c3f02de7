package detector

import (
	"fmt"
	"math"

	"github.com/san-kum/tctsim/internal/physics"
)

// PadDiode is a planar pad sensor with uniform bulk doping and the junction
// at y = 0. Fields follow the one dimensional abrupt junction solution:
// linear drift field inside the depleted layer, zero beyond it, and a
// uniform overdepletion term once the full thickness is depleted. The
// weighting field of a pad spanning the whole width is 1/thickness along y.
//
// Fields are a pure function of the stored depletion parameters, so
// concurrent Evaluate calls are safe as long as no bias change is in
// progress.
type PadDiode struct {
	Thickness   float64 // µm
	Width       float64 // µm
	Doping      float64 // effective bulk doping, cm^-3
	Temp        float64 // K
	Trapping    float64 // s, <= 0 disables trapping
	Diffusion   bool
	Dt          float64 // s
	Capacitance float64 // F, read by RC shaping

	bias     float64
	depleted float64
	vfd      float64
	slope    float64
	ready    bool
}

type DiodeConfig struct {
	Thickness   float64
	Width       float64
	Doping      float64
	Temperature float64
	Trapping    float64
	Diffusion   bool
	Dt          float64
	Capacitance float64
}

func NewPadDiode(cfg DiodeConfig) (*PadDiode, error) {
	if cfg.Thickness <= 0 || cfg.Width <= 0 {
		return nil, fmt.Errorf("%w: thickness %g, width %g", ErrInvalidGeometry, cfg.Thickness, cfg.Width)
	}
	if cfg.Doping <= 0 {
		return nil, fmt.Errorf("%w: doping must be positive, got %g", ErrInvalidGeometry, cfg.Doping)
	}
	if cfg.Temperature <= 0 {
		return nil, fmt.Errorf("%w: temperature must be positive, got %g", ErrInvalidGeometry, cfg.Temperature)
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: time step must be positive, got %g", ErrInvalidGeometry, cfg.Dt)
	}

	return &PadDiode{
		Thickness:   cfg.Thickness,
		Width:       cfg.Width,
		Doping:      cfg.Doping,
		Temp:        cfg.Temperature,
		Trapping:    cfg.Trapping,
		Diffusion:   cfg.Diffusion,
		Dt:          cfg.Dt,
		Capacitance: cfg.Capacitance,
	}, nil
}

func (d *PadDiode) DepletionWidth() float64 { return d.depleted }

func (d *PadDiode) Bounds() Bounds {
	return Bounds{XMin: 0, XMax: d.Width, YMin: 0, YMax: d.Thickness}
}

func (d *PadDiode) Temperature() float64 { return d.Temp }

// TrappingTime returns +Inf when trapping is disabled.
func (d *PadDiode) TrappingTime() float64 {
	if d.Trapping <= 0 {
		return math.Inf(1)
	}
	return d.Trapping
}

func (d *PadDiode) DiffusionEnabled() bool { return d.Diffusion }

func (d *PadDiode) TimeStep() float64 { return d.Dt }

func (d *PadDiode) Bias() float64 { return d.bias }

func (d *PadDiode) SetBias(volts float64) {
	d.bias = volts
	d.ready = false
}

// FullDepletionVoltage is qN d²/(2 eps).
func (d *PadDiode) FullDepletionVoltage() float64 {
	return physics.ElementaryCharge * d.dopingPerCubicMicron() * d.Thickness * d.Thickness / (2 * d.permittivity())
}

func (d *PadDiode) CalculateFields() error {
	v := math.Abs(d.bias)
	n := d.dopingPerCubicMicron()
	eps := d.permittivity()

	d.vfd = d.FullDepletionVoltage()
	d.depleted = math.Min(d.Thickness, math.Sqrt(2*eps*v/(physics.ElementaryCharge*n)))
	d.slope = physics.ElementaryCharge * n / eps
	if math.IsNaN(d.depleted) || math.IsNaN(d.slope) {
		return fmt.Errorf("detector: fields undefined at bias %g V", d.bias)
	}
	d.ready = true
	return nil
}

func (d *PadDiode) Evaluate(pos physics.Vec2) (electric, weighting physics.Vec2) {
	weighting = physics.Vec2{Y: 1 / d.Thickness}
	if !d.ready || pos.Y < 0 || pos.Y > d.depleted {
		return physics.Vec2{}, weighting
	}

	e := d.slope * (d.depleted - pos.Y)
	if over := math.Abs(d.bias) - d.vfd; over > 0 {
		e += over / d.Thickness
	}
	if d.bias < 0 {
		e = -e
	}
	return physics.Vec2{Y: e}, weighting
}

func (d *PadDiode) ReentrantReads() bool { return true }

// Ready reports whether the fields match the current bias.
func (d *PadDiode) Ready() bool { return d.ready }

func (d *PadDiode) dopingPerCubicMicron() float64 {
	return d.Doping / (physics.Centimeter * physics.Centimeter * physics.Centimeter)
}

func (d *PadDiode) permittivity() float64 {
	return physics.SiliconPermittivity * physics.VacuumPermittivity
}

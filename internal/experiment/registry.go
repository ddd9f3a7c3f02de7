package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/tctsim/internal/config"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/dynamo"
	"github.com/san-kum/tctsim/internal/integrators"
	"github.com/san-kum/tctsim/internal/physics"
	"github.com/san-kum/tctsim/internal/shaping"
)

type Registry struct {
	detectors   map[string]func(config.DetectorConfig, float64) (detector.Detector, error)
	integrators map[string]func() dynamo.Integrator
	shapers     map[string]func(config.ShapingConfig, float64) shaping.Shaper
}

func NewRegistry() *Registry {
	r := &Registry{
		detectors:   make(map[string]func(config.DetectorConfig, float64) (detector.Detector, error)),
		integrators: make(map[string]func() dynamo.Integrator),
		shapers:     make(map[string]func(config.ShapingConfig, float64) shaping.Shaper),
	}

	r.detectors["pad"] = func(c config.DetectorConfig, dt float64) (detector.Detector, error) {
		return detector.NewPadDiode(detector.DiodeConfig{
			Thickness:   c.Thickness,
			Width:       c.Width,
			Doping:      c.Doping,
			Temperature: c.Temperature,
			Trapping:    c.EffectiveTrapping(),
			Diffusion:   c.Diffusion,
			Dt:          dt,
			Capacitance: c.Capacitance,
		})
	}
	r.detectors["uniform"] = func(c config.DetectorConfig, dt float64) (detector.Detector, error) {
		return &detector.Uniform{
			Field:     physics.Vec2{Y: c.Field},
			Weighting: physics.Vec2{Y: 1 / c.Thickness},
			Depleted:  c.Thickness,
			Region:    detector.Bounds{XMin: 0, XMax: c.Width, YMin: 0, YMax: c.Thickness},
			Temp:      c.Temperature,
			Trapping:  c.EffectiveTrapping(),
			Diffusion: c.Diffusion,
			Dt:        dt,
		}, nil
	}

	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }

	r.shapers["none"] = func(config.ShapingConfig, float64) shaping.Shaper { return nil }
	r.shapers["rc"] = func(_ config.ShapingConfig, capacitance float64) shaping.Shaper {
		return shaping.RC{Capacitance: capacitance}
	}
	r.shapers["crrc"] = func(c config.ShapingConfig, _ float64) shaping.Shaper {
		return shaping.CRRC{Tau: c.Tau, Gain: c.Gain}
	}
	r.shapers["rc+crrc"] = func(c config.ShapingConfig, capacitance float64) shaping.Shaper {
		return shaping.Chain{shaping.RC{Capacitance: capacitance}, shaping.CRRC{Tau: c.Tau, Gain: c.Gain}}
	}

	return r
}

func (r *Registry) GetDetector(c config.DetectorConfig, dt float64) (detector.Detector, error) {
	fn, ok := r.detectors[c.Model]
	if !ok {
		return nil, fmt.Errorf("unknown detector model: %s", c.Model)
	}
	return fn(c, dt)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// GetShaper returns nil for "none" and the empty mode.
func (r *Registry) GetShaper(c config.ShapingConfig, capacitance float64) (shaping.Shaper, error) {
	mode := c.Mode
	if mode == "" {
		mode = "none"
	}
	fn, ok := r.shapers[mode]
	if !ok {
		return nil, fmt.Errorf("unknown shaping mode: %s", c.Mode)
	}
	return fn(c, capacitance), nil
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListDetectors() []string {
	return sortedKeys(r.detectors)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

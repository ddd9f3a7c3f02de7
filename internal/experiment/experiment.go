package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/config"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/ensemble"
	"github.com/san-kum/tctsim/internal/metrics"
	"github.com/san-kum/tctsim/internal/physics"
	"github.com/san-kum/tctsim/internal/shaping"
	"github.com/san-kum/tctsim/internal/storage"
	"github.com/san-kum/tctsim/internal/sweep"
)

// Experiment turns a configuration into runnable sweeps: it loads or
// generates the carriers once and hands every worker its own detector and
// ensemble built from them.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	carriers []carrier.Carrier
	shaper   shaping.Shaper
	metrics  *metrics.Set
	log      *slog.Logger
}

func New(cfg *config.Config, registry *Registry, log *slog.Logger) *Experiment {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Experiment{cfg: cfg, registry: registry, log: log}
}

// Setup validates the configuration and prepares carriers and shaping.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if _, err := e.registry.GetIntegrator(e.cfg.Simulation.Integrator); err != nil {
		return err
	}

	shaper, err := e.registry.GetShaper(e.cfg.Shaping, e.cfg.Detector.Capacitance)
	if err != nil {
		return err
	}
	e.shaper = shaper

	det, err := e.registry.GetDetector(e.cfg.Detector, e.cfg.Simulation.Dt)
	if err != nil {
		return err
	}

	if path := e.cfg.Carriers.File; path != "" {
		probe := ensemble.New(det, nil)
		if err := probe.LoadFile(path); err != nil {
			return err
		}
		e.carriers = probe.Carriers()
	} else {
		b := e.cfg.Carriers.Beam
		beam := ensemble.GaussianBeam{
			Mode:    ensemble.BeamMode(b.Mode),
			Focus:   physics.Vec2{X: b.X, Y: b.Y},
			Waist:   b.Waist,
			Pairs:   b.Pairs,
			Charge:  b.Charge,
			GenTime: b.GenTime,
			Seed:    e.cfg.Simulation.Seed,
		}
		if e.carriers, err = beam.Generate(det.Bounds()); err != nil {
			return err
		}
	}
	if len(e.carriers) == 0 {
		return errors.New("experiment: no carriers")
	}
	e.log.Debug("carriers ready", "count", len(e.carriers))
	return nil
}

// Carriers returns the prepared carriers.
func (e *Experiment) Carriers() []carrier.Carrier { return e.carriers }

func (e *Experiment) Shaper() shaping.Shaper { return e.shaper }

// NewEnsemble builds a fresh detector and ensemble bound to guard.
func (e *Experiment) NewEnsemble(guard *detector.FieldGuard) (*ensemble.Ensemble, error) {
	det, err := e.registry.GetDetector(e.cfg.Detector, e.cfg.Simulation.Dt)
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Simulation.Integrator)
	if err != nil {
		return nil, err
	}
	ens := ensemble.New(det, guard, ensemble.WithIntegrator(integ), ensemble.WithSeed(e.cfg.Simulation.Seed))
	ens.Add(e.carriers...)
	return ens, nil
}

// Worker adapts NewEnsemble to the sweep worker factory.
func (e *Experiment) Worker(id int, guard *detector.FieldGuard) (*ensemble.Ensemble, error) {
	return e.NewEnsemble(guard)
}

// Run executes the configured scan.
func (e *Experiment) Run(ctx context.Context, opts ...sweep.Option) (*sweep.ResultTable, error) {
	if e.carriers == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	grid, err := e.cfg.Grid()
	if err != nil {
		return nil, err
	}

	cfg := sweep.Config{
		Grid:      grid,
		Workers:   e.cfg.Simulation.Threads,
		Dt:        e.cfg.Simulation.Dt,
		TotalTime: e.cfg.Simulation.TotalTime,
	}
	e.metrics = metrics.Default(cfg.Dt)
	base := []sweep.Option{sweep.WithLogger(e.log), sweep.WithObserver(e.metrics.Observe)}
	if e.shaper != nil {
		base = append(base, sweep.WithShaper(e.shaper))
	}
	return sweep.New(cfg, e.Worker, append(base, opts...)...).Run(ctx)
}

// Point is the result of a single grid point run outside a sweep.
type Point struct {
	Currents ensemble.Currents
	Shaped   []float64
	Centroid physics.Vec2
	Depleted float64
}

// RunPoint simulates one bias, lateral and depth combination on a private
// detector.
func (e *Experiment) RunPoint(voltage, lateral, depth float64) (*Point, error) {
	if e.carriers == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	guard := detector.NewFieldGuard()
	ens, err := e.NewEnsemble(guard)
	if err != nil {
		return nil, err
	}
	if err := guard.Recompute(ens.Detector(), voltage); err != nil {
		return nil, err
	}

	dt := e.cfg.Simulation.Dt
	cur, err := ens.SimulateDrift(dt, e.cfg.Simulation.TotalTime, lateral, depth)
	if err != nil {
		return nil, err
	}

	p := &Point{Currents: cur, Shaped: cur.Total(), Centroid: ens.Centroid(), Depleted: ens.Detector().DepletionWidth()}
	if e.shaper != nil {
		if p.Shaped, err = e.shaper.Shape(p.Shaped, dt); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Metadata describes a finished sweep for storage.
func (e *Experiment) Metadata(table *sweep.ResultTable, elapsed time.Duration) storage.RunMetadata {
	ens := ensemble.New(nil, nil)
	ens.Add(e.carriers...)
	electrons, holes := ens.Counts()
	centroid := ens.Centroid()

	d := e.cfg.Detector
	s := e.cfg.Simulation
	g := table.Grid()
	mode := e.cfg.Shaping.Mode
	if mode == "" {
		mode = "none"
	}
	return storage.RunMetadata{
		Scan:       e.cfg.Scan.Type,
		Seed:       s.Seed,
		Dt:         s.Dt,
		TotalTime:  s.TotalTime,
		Samples:    table.Samples(),
		Threads:    s.Threads,
		Integrator: s.Integrator,
		Shaping:    mode,
		Detector: storage.DetectorInfo{
			Model:        d.Model,
			Thickness:    d.Thickness,
			Width:        d.Width,
			Doping:       d.Doping,
			Temperature:  d.Temperature,
			TrappingTime: d.EffectiveTrapping(),
			Diffusion:    d.Diffusion,
			Capacitance:  d.Capacitance,
		},
		Carriers:  len(e.carriers),
		Electrons: electrons,
		Holes:     holes,
		CentroidX: centroid.X,
		CentroidY: centroid.Y,
		Crossings: table.Crossings(),
		Voltages:  g.Voltages,
		Lateral:   g.Lateral,
		Depths:    g.Depths,
		Elapsed:   elapsed.Seconds(),
		Metrics:   e.Metrics(),
	}
}

// Metrics returns the figures of merit of the last Run.
func (e *Experiment) Metrics() map[string]float64 {
	if e.metrics == nil {
		return nil
	}
	return e.metrics.Values()
}

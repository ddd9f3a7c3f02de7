package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/ensemble"
	"github.com/san-kum/tctsim/internal/shaping"
)

type Config struct {
	Grid      Grid
	Workers   int
	Dt        float64
	TotalTime float64
}

func (c Config) Validate() error {
	if c.Grid.Size() == 0 {
		return fmt.Errorf("%w: empty grid", ErrInvalidGrid)
	}
	if c.Dt <= 0 || math.IsNaN(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidGrid, c.Dt)
	}
	if c.TotalTime < c.Dt {
		return fmt.Errorf("%w: total time %g shorter than one step", ErrInvalidGrid, c.TotalTime)
	}
	return nil
}

// WorkerFactory builds the private ensemble (and through it the detector)
// of one worker. guard is shared by all workers of the sweep and must be
// the guard the ensemble evaluates fields through.
type WorkerFactory func(id int, guard *detector.FieldGuard) (*ensemble.Ensemble, error)

// Point describes one finished grid point.
type Point struct {
	Worker    int
	Index     int
	Voltage   float64
	Lateral   float64
	Depth     float64
	Crossings int
	// Wave is the stored waveform. Observers must not modify it.
	Wave []float64
}

// Observer is called from worker goroutines after each table write and
// must be safe for concurrent use.
type Observer func(Point)

type Scheduler struct {
	cfg       Config
	build     WorkerFactory
	guard     *detector.FieldGuard
	shaper    shaping.Shaper
	log       *slog.Logger
	observers []Observer
}

type Option func(*Scheduler)

func WithShaper(s shaping.Shaper) Option {
	return func(sc *Scheduler) { sc.shaper = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(sc *Scheduler) { sc.log = l }
}

// WithObserver adds o. Observers run in the order they were added.
func WithObserver(o Observer) Option {
	return func(sc *Scheduler) { sc.observers = append(sc.observers, o) }
}

func WithGuard(g *detector.FieldGuard) Option {
	return func(sc *Scheduler) { sc.guard = g }
}

func New(cfg Config, build WorkerFactory, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:   cfg,
		build: build,
		guard: detector.NewFieldGuard(),
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the sweep. On any worker error no table is returned.
func (s *Scheduler) Run(ctx context.Context) (*ResultTable, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	g := s.cfg.Grid

	workers, clamped := ClampWorkers(s.cfg.Workers, len(g.Depths))
	if clamped {
		s.log.Warn("more threads than depth points, clamping",
			"requested", s.cfg.Workers, "using", workers, "depths", len(g.Depths))
	}

	table, err := NewResultTable(g, carrier.Samples(s.cfg.Dt, s.cfg.TotalTime))
	if err != nil {
		return nil, err
	}

	blocks := Partition(len(g.Depths), workers)
	s.log.Info("sweep started",
		"voltages", len(g.Voltages), "lateral", len(g.Lateral), "depths", len(g.Depths),
		"workers", len(blocks), "samples", table.Samples())
	start := time.Now()

	eg, ctx := errgroup.WithContext(ctx)
	for id, b := range blocks {
		eg.Go(func() error {
			if err := s.work(ctx, id, b, table); err != nil {
				return fmt.Errorf("worker %d: %w", id, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		s.log.Error("sweep failed", "error", err)
		return nil, err
	}
	if !table.Complete() {
		return nil, ErrIncomplete
	}

	s.log.Info("sweep finished", "points", table.Len(), "crossings", table.Crossings(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return table, nil
}

func (s *Scheduler) work(ctx context.Context, id int, b Block, table *ResultTable) error {
	ens, err := s.build(id, s.guard)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	det := ens.Detector()
	g := s.cfg.Grid

	if id == 0 {
		width := det.Bounds().Width()
		for _, l := range g.Lateral {
			if math.Abs(l) > width {
				s.log.Warn("lateral position beyond detector width", "lateral", l, "width", width)
			}
		}
	}

	depths := g.Depths[b.Start:b.End]
	for vi, v := range g.Voltages {
		if err := s.guard.Recompute(det, v); err != nil {
			return fmt.Errorf("fields at %g V: %w", v, err)
		}
		s.log.Debug("bias applied", "worker", id, "bias", v, "depletion", det.DepletionWidth())

		for li, l := range g.Lateral {
			for _, z := range depths {
				if err := ctx.Err(); err != nil {
					return err
				}
				di, ok := g.DepthIndex(z)
				if !ok {
					return fmt.Errorf("depth %g not on grid", z)
				}

				cur, err := ens.SimulateDrift(s.cfg.Dt, s.cfg.TotalTime, l, z)
				if err != nil {
					return fmt.Errorf("bias %g V, lateral %g, depth %g: %w", v, l, z, err)
				}
				wave := cur.Total()
				if s.shaper != nil {
					if wave, err = s.shaper.Shape(wave, s.cfg.Dt); err != nil {
						return fmt.Errorf("shaping: %w", err)
					}
				}

				idx := table.Index(vi, li, di)
				if err := table.Set(idx, wave, cur.Crossings); err != nil {
					return err
				}
				p := Point{Worker: id, Index: idx, Voltage: v, Lateral: l, Depth: z, Crossings: cur.Crossings, Wave: wave}
				for _, observe := range s.observers {
					observe(p)
				}
			}
		}
	}
	return nil
}

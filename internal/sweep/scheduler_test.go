package sweep_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/ensemble"
	"github.com/san-kum/tctsim/internal/shaping"
	"github.com/san-kum/tctsim/internal/sweep"
)

const records = "e 1 500 20 0\nh 1 500 20 0\ne 1 510 25 0\nh 1 490 15 0\n"

func diodeFactory(id int, guard *detector.FieldGuard) (*ensemble.Ensemble, error) {
	det, err := detector.NewPadDiode(detector.DiodeConfig{
		Thickness:   300,
		Width:       1000,
		Doping:      1e12,
		Temperature: 253,
		Trapping:    5e-9,
		Dt:          50e-12,
	})
	if err != nil {
		return nil, err
	}
	e := ensemble.New(det, guard)
	if err := e.Load(strings.NewReader(records)); err != nil {
		return nil, err
	}
	return e, nil
}

// serial recomputes every point on one detector for comparison.
func serial(g sweep.Grid, dt, total float64) map[[3]int][]float64 {
	out := map[[3]int][]float64{}
	e, err := diodeFactory(0, nil)
	Expect(err).NotTo(HaveOccurred())
	det := e.Detector()
	for vi, v := range g.Voltages {
		det.SetBias(v)
		Expect(det.CalculateFields()).To(Succeed())
		for li, l := range g.Lateral {
			for di, z := range g.Depths {
				cur, err := e.SimulateDrift(dt, total, l, z)
				Expect(err).NotTo(HaveOccurred())
				out[[3]int{vi, li, di}] = cur.Total()
			}
		}
	}
	return out
}

var _ = Describe("Scheduler", func() {
	var (
		grid sweep.Grid
		cfg  sweep.Config
	)

	BeforeEach(func() {
		var err error
		grid, err = sweep.NewGrid(
			sweep.Range{Init: 20, Step: 60, Count: 3},
			sweep.Range{Init: -10, Step: 10, Count: 2},
			sweep.Range{Init: 0, Step: 40, Count: 5},
		)
		Expect(err).NotTo(HaveOccurred())
		cfg = sweep.Config{Grid: grid, Workers: 3, Dt: 50e-12, TotalTime: 5e-9}
	})

	It("fills every slot with the serial result", func() {
		table, err := sweep.New(cfg, diodeFactory).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Complete()).To(BeTrue())
		Expect(table.Samples()).To(Equal(100))

		want := serial(grid, cfg.Dt, cfg.TotalTime)
		for key, wave := range want {
			Expect(table.Waveform(key[0], key[1], key[2])).To(Equal(wave), "point %v", key)
		}
	})

	It("produces the same table for any worker count", func() {
		var tables []*sweep.ResultTable
		for _, workers := range []int{1, 2, 5} {
			cfg.Workers = workers
			table, err := sweep.New(cfg, diodeFactory).Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			tables = append(tables, table)
		}
		for i := 0; i < tables[0].Len(); i++ {
			Expect(tables[1].At(i)).To(Equal(tables[0].At(i)))
			Expect(tables[2].At(i)).To(Equal(tables[0].At(i)))
		}
	})

	It("responds to the bias", func() {
		table, err := sweep.New(cfg, diodeFactory).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		low := table.Waveform(0, 0, 0)
		high := table.Waveform(2, 0, 0)
		Expect(high).NotTo(Equal(low))
	})

	It("clamps the thread count and warns", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		cfg.Workers = 16

		ids := map[int]bool{}
		var mu sync.Mutex
		build := func(id int, guard *detector.FieldGuard) (*ensemble.Ensemble, error) {
			mu.Lock()
			ids[id] = true
			mu.Unlock()
			return diodeFactory(id, guard)
		}

		table, err := sweep.New(cfg, build, sweep.WithLogger(logger)).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Complete()).To(BeTrue())
		Expect(ids).To(HaveLen(len(grid.Depths)))
		Expect(buf.String()).To(ContainSubstring("clamping"))
	})

	It("reports every grid point to the observer", func() {
		var count atomic.Int64
		var crossings atomic.Int64
		observe := func(p sweep.Point) {
			count.Add(1)
			crossings.Add(int64(p.Crossings))
		}

		table, err := sweep.New(cfg, diodeFactory, sweep.WithObserver(observe)).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(count.Load()).To(BeEquivalentTo(grid.Size()))
		Expect(crossings.Load()).To(BeEquivalentTo(table.Crossings()))
	})

	It("applies the shaper to every waveform", func() {
		plain, err := sweep.New(cfg, diodeFactory).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		rc := shaping.RC{Capacitance: 10e-12}
		shaped, err := sweep.New(cfg, diodeFactory, sweep.WithShaper(rc)).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < plain.Len(); i++ {
			want, err := rc.Shape(plain.At(i), cfg.Dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(shaped.At(i)).To(Equal(want))
		}
	})

	It("fails the sweep when a worker fails", func() {
		boom := errors.New("no mesh")
		build := func(id int, guard *detector.FieldGuard) (*ensemble.Ensemble, error) {
			if id == 1 {
				return nil, boom
			}
			return diodeFactory(id, guard)
		}

		table, err := sweep.New(cfg, build).Run(context.Background())
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(ContainSubstring("worker 1"))
		Expect(table).To(BeNil())
	})

	It("propagates numerical failures", func() {
		build := func(id int, guard *detector.FieldGuard) (*ensemble.Ensemble, error) {
			det := &detector.Uniform{
				Field:    nanField(),
				Depleted: 300,
				Region:   detector.Bounds{XMin: 0, XMax: 1000, YMin: 0, YMax: 300},
				Temp:     253,
			}
			e := ensemble.New(det, guard)
			return e, e.Load(strings.NewReader(records))
		}

		table, err := sweep.New(cfg, build).Run(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(table).To(BeNil())
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		table, err := sweep.New(cfg, diodeFactory).Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(table).To(BeNil())
	})

	It("rejects an invalid configuration", func() {
		cfg.Dt = 0
		_, err := sweep.New(cfg, diodeFactory).Run(context.Background())
		Expect(err).To(MatchError(sweep.ErrInvalidGrid))
	})
})

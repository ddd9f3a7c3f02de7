package sweep_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tctsim/internal/sweep"
)

var _ = Describe("ResultTable", func() {
	var (
		grid  sweep.Grid
		table *sweep.ResultTable
	)

	BeforeEach(func() {
		var err error
		grid, err = sweep.NewGrid(
			sweep.Range{Init: 50, Step: 50, Count: 2},
			sweep.Range{Init: 0, Step: 10, Count: 3},
			sweep.Range{Init: 0, Step: 25, Count: 4},
		)
		Expect(err).NotTo(HaveOccurred())
		table, err = sweep.NewResultTable(grid, 3)
		Expect(err).NotTo(HaveOccurred())
	})

	It("matches v*D + d for a single lateral point", func() {
		g, err := sweep.NewGrid(sweep.Range{Init: 0, Step: 1, Count: 3}, sweep.Single(0), sweep.Range{Init: 0, Step: 1, Count: 5})
		Expect(err).NotTo(HaveOccurred())
		t, err := sweep.NewResultTable(g, 1)
		Expect(err).NotTo(HaveOccurred())
		for v := 0; v < 3; v++ {
			for d := 0; d < 5; d++ {
				Expect(t.Index(v, 0, d)).To(Equal(v*5 + d))
			}
		}
	})

	It("gives every grid point a distinct index", func() {
		seen := map[int]bool{}
		for v := range grid.Voltages {
			for l := range grid.Lateral {
				for d := range grid.Depths {
					idx := table.Index(v, l, d)
					Expect(seen).NotTo(HaveKey(idx))
					seen[idx] = true

					cv, cl, cd := table.Coords(idx)
					Expect([]int{cv, cl, cd}).To(Equal([]int{v, l, d}))
				}
			}
		}
		Expect(seen).To(HaveLen(table.Len()))
	})

	It("stores waveforms and crossings", func() {
		idx := table.Index(1, 2, 3)
		Expect(table.Set(idx, []float64{1, 2, 3}, 4)).To(Succeed())

		Expect(table.Waveform(1, 2, 3)).To(Equal([]float64{1, 2, 3}))
		Expect(table.CrossingsAt(idx)).To(Equal(4))
		Expect(table.Crossings()).To(Equal(4))
		Expect(table.Complete()).To(BeFalse())
	})

	It("rejects a second write to the same slot", func() {
		Expect(table.Set(5, []float64{1, 1, 1}, 0)).To(Succeed())
		Expect(table.Set(5, []float64{2, 2, 2}, 0)).To(MatchError(sweep.ErrSlotWritten))
		Expect(table.At(5)).To(Equal([]float64{1, 1, 1}))
	})

	It("rejects bad indices and lengths", func() {
		Expect(table.Set(-1, []float64{0, 0, 0}, 0)).To(MatchError(sweep.ErrIndexOutOfRange))
		Expect(table.Set(table.Len(), []float64{0, 0, 0}, 0)).To(MatchError(sweep.ErrIndexOutOfRange))
		Expect(table.Set(0, []float64{0, 0}, 0)).To(MatchError(sweep.ErrWaveformLength))
	})

	It("is complete once every slot is written", func() {
		for i := 0; i < table.Len(); i++ {
			Expect(table.Set(i, []float64{0, 0, 0}, 1)).To(Succeed())
		}
		Expect(table.Complete()).To(BeTrue())
		Expect(table.Crossings()).To(Equal(table.Len()))
	})
})

package sweep_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tctsim/internal/sweep"
)

var _ = Describe("Range", func() {
	It("expands to an arithmetic sequence", func() {
		Expect(sweep.Range{Init: 10, Step: 5, Count: 4}.Values()).To(Equal([]float64{10, 15, 20, 25}))
		Expect(sweep.Single(3).Values()).To(Equal([]float64{3}))
	})

	DescribeTable("validation",
		func(r sweep.Range, ok bool) {
			err := r.Validate()
			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(sweep.ErrInvalidGrid))
			}
		},
		Entry("single point with zero step", sweep.Range{Init: 1, Count: 1}, true),
		Entry("descending", sweep.Range{Init: 1, Step: -1, Count: 3}, true),
		Entry("zero count", sweep.Range{Init: 1, Step: 1, Count: 0}, false),
		Entry("zero step", sweep.Range{Init: 1, Count: 2}, false),
		Entry("step lost in rounding", sweep.Range{Init: 1e17, Step: 1, Count: 3}, false),
		Entry("step visible at large init", sweep.Range{Init: 1e17, Step: 64, Count: 3}, true),
		Entry("overflowing values", sweep.Range{Init: math.MaxFloat64, Step: math.MaxFloat64, Count: 2}, false),
		Entry("NaN init", sweep.Range{Init: math.NaN(), Step: 1, Count: 2}, false),
		Entry("infinite step", sweep.Range{Init: 0, Step: math.Inf(1), Count: 2}, false),
	)
})

var _ = Describe("Grid", func() {
	It("locates depth values in the full sequence", func() {
		g, err := sweep.NewGrid(sweep.Single(100), sweep.Single(0), sweep.Range{Init: 5, Step: 10, Count: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Size()).To(Equal(5))

		for i, z := range g.Depths {
			idx, ok := g.DepthIndex(z)
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(i))
		}
		_, ok := g.DepthIndex(7)
		Expect(ok).To(BeFalse())
	})

	It("rejects depth axes whose values collide", func() {
		_, err := sweep.NewGrid(sweep.Single(100), sweep.Single(0), sweep.Range{Init: 1e17, Step: 1, Count: 3})
		Expect(err).To(MatchError(sweep.ErrInvalidGrid))
		Expect(err.Error()).To(ContainSubstring("depth"))
	})

	It("names the failing axis", func() {
		_, err := sweep.NewGrid(sweep.Single(1), sweep.Range{Count: 0}, sweep.Single(1))
		Expect(err).To(MatchError(sweep.ErrInvalidGrid))
		Expect(err.Error()).To(ContainSubstring("lateral"))
	})
})

var _ = Describe("Partition", func() {
	It("covers every depth index exactly once", func() {
		for n := 1; n <= 40; n++ {
			for w := 1; w <= n; w++ {
				blocks := sweep.Partition(n, w)
				Expect(blocks).To(HaveLen(w))

				seen := make([]int, n)
				next := 0
				for _, b := range blocks {
					Expect(b.Start).To(Equal(next), "blocks must be contiguous")
					Expect(b.Len()).To(BeNumerically(">", 0))
					for i := b.Start; i < b.End; i++ {
						seen[i]++
					}
					next = b.End
				}
				Expect(next).To(Equal(n))
				for _, c := range seen {
					Expect(c).To(Equal(1))
				}
			}
		}
	})

	It("uses ceiling sized blocks", func() {
		Expect(sweep.Partition(10, 3)).To(Equal([]sweep.Block{{Start: 0, End: 4}, {Start: 4, End: 7}, {Start: 7, End: 10}}))
		Expect(sweep.Partition(7, 7)).To(HaveLen(7))
	})

	It("clamps workers to the number of depth points", func() {
		Expect(sweep.Partition(3, 8)).To(HaveLen(3))

		n, clamped := sweep.ClampWorkers(8, 3)
		Expect(n).To(Equal(3))
		Expect(clamped).To(BeTrue())

		n, clamped = sweep.ClampWorkers(0, 3)
		Expect(n).To(Equal(1))
		Expect(clamped).To(BeFalse())
	})

	It("returns nothing for an empty axis", func() {
		Expect(sweep.Partition(0, 4)).To(BeEmpty())
	})
})

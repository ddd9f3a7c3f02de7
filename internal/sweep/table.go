package sweep

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("sweep: result index out of range")
	ErrSlotWritten     = errors.New("sweep: result slot already written")
	ErrWaveformLength  = errors.New("sweep: waveform length mismatch")
	ErrIncomplete      = errors.New("sweep: result table incomplete")
)

// ResultTable stores one fixed-length waveform per grid point in a single
// pre-sized buffer. Concurrent Set calls are safe as long as they target
// different indices.
type ResultTable struct {
	grid      Grid
	samples   int
	data      []float64
	crossings []int
	written   []bool
}

func NewResultTable(g Grid, samples int) (*ResultTable, error) {
	if g.Size() == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidGrid)
	}
	if samples < 0 {
		return nil, fmt.Errorf("%w: negative sample count %d", ErrInvalidGrid, samples)
	}
	n := g.Size()
	return &ResultTable{
		grid:      g,
		samples:   samples,
		data:      make([]float64, n*samples),
		crossings: make([]int, n),
		written:   make([]bool, n),
	}, nil
}

func (t *ResultTable) Grid() Grid   { return t.grid }
func (t *ResultTable) Samples() int { return t.samples }
func (t *ResultTable) Len() int     { return len(t.written) }

// Index is (v*L + l)*D + d, which reduces to v*D + d for a single lateral
// point.
func (t *ResultTable) Index(v, l, d int) int {
	return (v*len(t.grid.Lateral)+l)*len(t.grid.Depths) + d
}

// Coords inverts Index.
func (t *ResultTable) Coords(idx int) (v, l, d int) {
	nd := len(t.grid.Depths)
	nl := len(t.grid.Lateral)
	d = idx % nd
	l = (idx / nd) % nl
	v = idx / (nd * nl)
	return v, l, d
}

func (t *ResultTable) Set(idx int, wave []float64, crossings int) error {
	if idx < 0 || idx >= len(t.written) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, idx, len(t.written))
	}
	if len(wave) != t.samples {
		return fmt.Errorf("%w: got %d samples, want %d", ErrWaveformLength, len(wave), t.samples)
	}
	if t.written[idx] {
		return fmt.Errorf("%w: %d", ErrSlotWritten, idx)
	}
	copy(t.data[idx*t.samples:(idx+1)*t.samples], wave)
	t.crossings[idx] = crossings
	t.written[idx] = true
	return nil
}

// At returns the waveform stored at idx. The slice aliases the table.
func (t *ResultTable) At(idx int) []float64 {
	return t.data[idx*t.samples : (idx+1)*t.samples : (idx+1)*t.samples]
}

func (t *ResultTable) Waveform(v, l, d int) []float64 {
	return t.At(t.Index(v, l, d))
}

func (t *ResultTable) CrossingsAt(idx int) int { return t.crossings[idx] }

// Crossings is the total number of carriers that diffused into the depleted
// layer over the whole sweep.
func (t *ResultTable) Crossings() int {
	total := 0
	for _, c := range t.crossings {
		total += c
	}
	return total
}

// Complete reports whether every slot has been written. Call it only after
// all writers are done.
func (t *ResultTable) Complete() bool {
	for _, w := range t.written {
		if !w {
			return false
		}
	}
	return true
}

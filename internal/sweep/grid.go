package sweep

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGrid = errors.New("sweep: invalid scan grid")

// Range is an arithmetic sequence of Count values starting at Init.
type Range struct {
	Init  float64 `yaml:"init" json:"init"`
	Step  float64 `yaml:"step" json:"step"`
	Count int     `yaml:"count" json:"count"`
}

// Single is a one-point range.
func Single(v float64) Range {
	return Range{Init: v, Count: 1}
}

// Validate checks that the range expands to Count distinct finite values.
func (r Range) Validate() error {
	if r.Count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidGrid, r.Count)
	}
	if r.Step == 0 && r.Count > 1 {
		return fmt.Errorf("%w: zero step with %d points", ErrInvalidGrid, r.Count)
	}
	if math.IsNaN(r.Init) || math.IsInf(r.Init, 0) || math.IsNaN(r.Step) || math.IsInf(r.Step, 0) {
		return fmt.Errorf("%w: non-finite range", ErrInvalidGrid)
	}
	// depth slots are located by value, so neighbours must differ as floats
	v := r.Values()
	for i := 1; i < len(v); i++ {
		if v[i] == v[i-1] || math.IsInf(v[i], 0) {
			return fmt.Errorf("%w: value %d (%g) not distinct from %g", ErrInvalidGrid, i, v[i], v[i-1])
		}
	}
	return nil
}

func (r Range) Values() []float64 {
	if r.Count < 1 {
		return nil
	}
	v := make([]float64, r.Count)
	for i := range v {
		v[i] = r.Init + float64(i)*r.Step
	}
	return v
}

// Grid holds the three scan axes. It is not modified after NewGrid.
type Grid struct {
	Voltages []float64
	Lateral  []float64
	Depths   []float64
}

func NewGrid(voltage, lateral, depth Range) (Grid, error) {
	axes := []struct {
		name string
		r    Range
	}{{"voltage", voltage}, {"lateral", lateral}, {"depth", depth}}
	for _, a := range axes {
		if err := a.r.Validate(); err != nil {
			return Grid{}, fmt.Errorf("%s axis: %w", a.name, err)
		}
	}
	return Grid{
		Voltages: voltage.Values(),
		Lateral:  lateral.Values(),
		Depths:   depth.Values(),
	}, nil
}

// Size is the number of grid points.
func (g Grid) Size() int {
	return len(g.Voltages) * len(g.Lateral) * len(g.Depths)
}

// DepthIndex returns the position of z in the full depth sequence.
func (g Grid) DepthIndex(z float64) (int, bool) {
	for i, d := range g.Depths {
		if d == z {
			return i, true
		}
	}
	return -1, false
}

// Package optim searches sweep results for operating points.
package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tctsim/internal/analysis"
	"github.com/san-kum/tctsim/internal/storage"
)

var ErrTooFewPoints = errors.New("optim: need at least two bias points")

// ChargeCurve is the collected charge against bias at one lateral and
// depth position.
type ChargeCurve struct {
	Lateral  float64
	Depth    float64
	Voltages []float64
	Charges  []float64
}

// ChargeCurves groups waveforms by position and integrates each one.
// Voltages keep the order they appear in waves.
func ChargeCurves(waves []storage.Waveform, dt float64) []ChargeCurve {
	type key struct{ l, d float64 }
	index := make(map[key]int)
	var out []ChargeCurve
	for _, w := range waves {
		k := key{w.Lateral, w.Depth}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, ChargeCurve{Lateral: w.Lateral, Depth: w.Depth})
		}
		q := analysis.Summarize(w.Current, dt).Charge
		out[i].Voltages = append(out[i].Voltages, w.Voltage)
		out[i].Charges = append(out[i].Charges, math.Abs(q))
	}
	return out
}

// FullDepletion estimates the bias at which the collected charge first
// reaches frac of its plateau, interpolating linearly between bias points.
// Voltages must be increasing.
func FullDepletion(voltages, charges []float64, frac float64) (float64, error) {
	if len(voltages) != len(charges) {
		return 0, fmt.Errorf("optim: %d voltages for %d charges", len(voltages), len(charges))
	}
	if len(voltages) < 2 {
		return 0, ErrTooFewPoints
	}
	plateau := floats.Max(charges)
	if plateau == 0 {
		return 0, errors.New("optim: no collected charge")
	}

	level := frac * plateau
	for i, q := range charges {
		if q < level {
			continue
		}
		if i == 0 {
			return voltages[0], nil
		}
		v0, v1 := voltages[i-1], voltages[i]
		q0 := charges[i-1]
		return v0 + (level-q0)/(q-q0)*(v1-v0), nil
	}
	return voltages[len(voltages)-1], nil
}

// Best returns the index of the curve point with the largest charge.
func (c ChargeCurve) Best() int {
	if len(c.Charges) == 0 {
		return -1
	}
	return floats.MaxIdx(c.Charges)
}

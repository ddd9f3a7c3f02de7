// Package metrics accumulates figures of merit over the points of a sweep.
package metrics

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/tctsim/internal/sweep"
)

// Metric observes finished grid points.
type Metric interface {
	Name() string
	Observe(p sweep.Point)
	Value() float64
	Reset()
}

// PeakCurrent is the largest absolute sample seen.
type PeakCurrent struct {
	peak float64
}

func NewPeakCurrent() *PeakCurrent { return &PeakCurrent{} }

func (m *PeakCurrent) Name() string { return "peak_current" }

func (m *PeakCurrent) Observe(p sweep.Point) {
	if len(p.Wave) == 0 {
		return
	}
	hi := math.Max(floats.Max(p.Wave), -floats.Min(p.Wave))
	m.peak = math.Max(m.peak, hi)
}

func (m *PeakCurrent) Value() float64 { return m.peak }

func (m *PeakCurrent) Reset() { m.peak = 0 }

// MeanCharge is the average time integral of the waveforms.
type MeanCharge struct {
	dt      float64
	total   float64
	samples int
}

func NewMeanCharge(dt float64) *MeanCharge { return &MeanCharge{dt: dt} }

func (m *MeanCharge) Name() string { return "mean_charge" }

func (m *MeanCharge) Observe(p sweep.Point) {
	if len(p.Wave) < 2 {
		m.samples++
		return
	}
	t := make([]float64, len(p.Wave))
	floats.Span(t, 0, float64(len(t)-1)*m.dt)
	m.total += integrate.Trapezoidal(t, p.Wave)
	m.samples++
}

func (m *MeanCharge) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanCharge) Reset() {
	m.total = 0
	m.samples = 0
}

// CrossingRate is the mean number of carriers per point that diffused into
// the depleted region.
type CrossingRate struct {
	crossings int
	samples   int
}

func NewCrossingRate() *CrossingRate { return &CrossingRate{} }

func (m *CrossingRate) Name() string { return "crossing_rate" }

func (m *CrossingRate) Observe(p sweep.Point) {
	m.crossings += p.Crossings
	m.samples++
}

func (m *CrossingRate) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.crossings) / float64(m.samples)
}

func (m *CrossingRate) Reset() {
	m.crossings = 0
	m.samples = 0
}

// Set feeds every metric from concurrent sweep workers.
type Set struct {
	mu      sync.Mutex
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

// Default returns the metrics recorded with every run.
func Default(dt float64) *Set {
	return NewSet(NewPeakCurrent(), NewMeanCharge(dt), NewCrossingRate())
}

// Observe is a sweep.Observer.
func (s *Set) Observe(p sweep.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.Observe(p)
	}
}

func (s *Set) Values() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.Reset()
	}
}

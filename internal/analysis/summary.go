package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

type Summary struct {
	Samples  int
	Max      float64
	Min      float64
	Polarity int     // +1 when the largest excursion is positive, -1 otherwise, 0 for a flat signal
	Peak     float64 // signed value of the largest excursion
	PeakTime float64
	Charge   float64 // time integral of the waveform
	RiseTime float64 // 10% to 90% of the peak on the leading edge
}

func Summarize(wave []float64, dt float64) Summary {
	s := Summary{Samples: len(wave)}
	if len(wave) == 0 {
		return s
	}

	maxIdx := floats.MaxIdx(wave)
	minIdx := floats.MinIdx(wave)
	s.Max = wave[maxIdx]
	s.Min = wave[minIdx]

	peakIdx := maxIdx
	switch {
	case s.Max == 0 && s.Min == 0:
		s.Polarity = 0
	case s.Max >= math.Abs(s.Min):
		s.Polarity = 1
	default:
		s.Polarity = -1
		peakIdx = minIdx
	}
	s.Peak = wave[peakIdx]
	s.PeakTime = float64(peakIdx) * dt

	if len(wave) > 1 {
		t := make([]float64, len(wave))
		floats.Span(t, 0, float64(len(wave)-1)*dt)
		s.Charge = integrate.Trapezoidal(t, wave)
	}

	if s.Polarity != 0 {
		s.RiseTime = riseTime(wave, peakIdx, float64(s.Polarity), dt)
	}
	return s
}

// Polarity is the sign of the dominant excursion.
func Polarity(wave []float64) int {
	return Summarize(wave, 1).Polarity
}

func riseTime(wave []float64, peakIdx int, sign, dt float64) float64 {
	peak := sign * wave[peakIdx]
	lo := crossing(wave, peakIdx, sign, 0.1*peak)
	hi := crossing(wave, peakIdx, sign, 0.9*peak)
	return (hi - lo) * dt
}

// crossing returns the fractional index where sign*wave first reaches level
// on the way to peakIdx.
func crossing(wave []float64, peakIdx int, sign, level float64) float64 {
	for i := 0; i <= peakIdx; i++ {
		v := sign * wave[i]
		if v < level {
			continue
		}
		if i == 0 {
			return 0
		}
		prev := sign * wave[i-1]
		return float64(i-1) + (level-prev)/(v-prev)
	}
	return float64(peakIdx)
}

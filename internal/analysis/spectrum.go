package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum returns frequencies (Hz) and single sided amplitudes of wave
// sampled every dt.
func Spectrum(wave []float64, dt float64) (freqs, amps []float64) {
	n := len(wave)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	coeffs := fft.FFTReal(wave)
	half := n/2 + 1
	freqs = make([]float64, half)
	amps = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[k]) / float64(n)
		if k != 0 && !(n%2 == 0 && k == n/2) {
			a *= 2
		}
		amps[k] = a
	}
	return freqs, amps
}

// Bandwidth is the highest frequency whose amplitude reaches frac of the
// largest non-DC amplitude.
func Bandwidth(freqs, amps []float64, frac float64) float64 {
	peak := 0.0
	for k := 1; k < len(amps); k++ {
		if amps[k] > peak {
			peak = amps[k]
		}
	}
	bw := 0.0
	for k := 1; k < len(amps); k++ {
		if amps[k] >= frac*peak {
			bw = freqs[k]
		}
	}
	return bw
}

// Package shaping models the readout electronics between the sensor and
// the oscilloscope: a resistive-capacitive low pass and a CR-RC amplifier.
package shaping

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

var ErrInvalidShaper = errors.New("shaping: invalid parameters")

// Shaper turns an induced current waveform into the measured one. The
// output has the same length as the input.
type Shaper interface {
	Shape(signal []float64, dt float64) ([]float64, error)
}

// InputResistance is the 50 Ohm termination of the readout line.
const InputResistance = 50.0

// RC is a first order low pass formed by the termination and the detector
// capacitance. The first output sample is zero.
type RC struct {
	Capacitance float64 // F
	Resistance  float64 // Ohm, InputResistance when zero
}

func (r RC) TimeConstant() float64 {
	res := r.Resistance
	if res == 0 {
		res = InputResistance
	}
	return res * r.Capacitance
}

func (r RC) Shape(signal []float64, dt float64) ([]float64, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt %g", ErrInvalidShaper, dt)
	}
	tau := r.TimeConstant()
	if tau < 0 {
		return nil, fmt.Errorf("%w: negative time constant %g", ErrInvalidShaper, tau)
	}

	out := make([]float64, len(signal))
	alpha := dt / (tau + dt)
	for j := 1; j < len(signal); j++ {
		out[j] = out[j-1] + alpha*(signal[j]-out[j-1])
	}
	return out, nil
}

// CRRC convolves with the unit-area impulse response t/tau² exp(-t/tau) of
// a CR-RC amplifier, scaled by Gain.
type CRRC struct {
	Tau  float64 // s
	Gain float64 // 1 when zero
}

// Kernel samples the impulse response over n steps and normalizes it to
// unit sum.
func (c CRRC) Kernel(n int, dt float64) []float64 {
	k := make([]float64, n)
	sum := 0.0
	for i := range k {
		t := float64(i) * dt
		k[i] = t / (c.Tau * c.Tau) * math.Exp(-t/c.Tau)
		sum += k[i]
	}
	if sum > 0 {
		for i := range k {
			k[i] /= sum
		}
	}
	return k
}

func (c CRRC) Shape(signal []float64, dt float64) ([]float64, error) {
	if dt <= 0 || c.Tau <= 0 {
		return nil, fmt.Errorf("%w: dt %g, tau %g", ErrInvalidShaper, dt, c.Tau)
	}
	n := len(signal)
	if n == 0 {
		return []float64{}, nil
	}
	gain := c.Gain
	if gain == 0 {
		gain = 1
	}

	// zero padding to 2n turns the circular product into a linear one
	size := 1
	for size < 2*n {
		size <<= 1
	}
	a := make([]float64, size)
	b := make([]float64, size)
	copy(a, signal)
	copy(b, c.Kernel(n, dt))

	fa := fft.FFTReal(a)
	fb := fft.FFTReal(b)
	for i := range fa {
		fa[i] *= fb[i]
	}
	conv := fft.IFFT(fa)

	out := make([]float64, n)
	for i := range out {
		out[i] = gain * real(conv[i])
	}
	return out, nil
}

// Chain applies shapers in order.
type Chain []Shaper

func (c Chain) Shape(signal []float64, dt float64) ([]float64, error) {
	out := signal
	for i, s := range c {
		var err error
		if out, err = s.Shape(out, dt); err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return out, nil
}

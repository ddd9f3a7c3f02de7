package physics

import "math"

// Mobility is the Jacoboni (Canali) parametrization of the drift mobility
// in silicon:
//
//	mu(E) = mu0 / (1 + (mu0*E/vsat)^beta)^(1/beta)
//
// The parameters depend only on carrier kind and temperature, so a value is
// built once per carrier species and reused for every field evaluation.
type Mobility struct {
	Kind        Kind
	Temperature float64

	mu0  float64 // low-field mobility, µm²/(V·s)
	vsat float64 // saturation velocity, µm/s
	beta float64
}

// NewMobility evaluates the temperature dependence of the model parameters.
func NewMobility(kind Kind, temperature float64) Mobility {
	r := temperature / 300.0
	m := Mobility{Kind: kind, Temperature: temperature}
	if kind == Electron {
		m.mu0 = 1530 * Centimeter * Centimeter * math.Pow(r, -2.42)
		m.vsat = 1.03e7 * Centimeter * math.Pow(r, -0.226)
		m.beta = 1.109 * math.Pow(r, 0.66)
	} else {
		m.mu0 = 464 * Centimeter * Centimeter * math.Pow(r, -2.20)
		m.vsat = 0.834e7 * Centimeter * math.Pow(r, -0.226)
		m.beta = 1.213 * math.Pow(r, 0.17)
	}
	return m
}

// LowField returns the zero-field mobility.
func (m Mobility) LowField() float64 { return m.mu0 }

// Saturation returns the saturation velocity.
func (m Mobility) Saturation() float64 { return m.vsat }

// At returns the mobility for a field magnitude in V/µm. Negative
// magnitudes are folded to their absolute value.
func (m Mobility) At(field float64) float64 {
	e := math.Abs(field)
	if e == 0 {
		return m.mu0
	}
	ratio := math.Pow(m.mu0*e/m.vsat, m.beta)
	if math.IsInf(ratio, 1) {
		// deep saturation: drift velocity is vsat
		return m.vsat / e
	}
	return m.mu0 / math.Pow(1+ratio, 1/m.beta)
}

// Velocity returns the drift speed mu(E)*E.
func (m Mobility) Velocity(field float64) float64 {
	return m.At(field) * math.Abs(field)
}

// DiffusionConstant returns the Einstein diffusion coefficient mu*kT/q at
// the given field, in µm²/s.
func (m Mobility) DiffusionConstant(field float64) float64 {
	return m.At(field) * ThermalVoltage(m.Temperature)
}

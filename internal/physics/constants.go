package physics

const (
	// ElementaryCharge in coulomb.
	ElementaryCharge = 1.602177e-19
	// Boltzmann constant in J/K.
	Boltzmann = 1.38065e-23
	// SiliconPermittivity is the relative permittivity of silicon.
	SiliconPermittivity = 11.9
	// VacuumPermittivity in F/µm.
	VacuumPermittivity = 8.85e-18
)

// Length units, expressed in micrometers.
const (
	Micrometer = 1.0
	Centimeter = 1e4 * Micrometer
	Meter      = 100 * Centimeter
)

// Time units, expressed in seconds.
const (
	Second      = 1.0
	Microsecond = 1e-6
	Nanosecond  = 1e-9
	Picosecond  = 1e-12
)

// ThermalVoltage returns kT/q in volts.
func ThermalVoltage(temperature float64) float64 {
	return Boltzmann * temperature / ElementaryCharge
}

package config

import (
	"sort"

	"github.com/san-kum/tctsim/internal/sweep"
)

// Presets are ready made scans over the default 300 µm pad.
var Presets = map[string]func() *Config{
	// edge-TCT depth scan: the focused beam is moved through the full
	// thickness at fixed bias
	"edge": func() *Config {
		c := DefaultConfig()
		c.Scan.Type = "edge"
		c.Scan.Depth = sweep.Range{Init: -140, Step: 20, Count: 15}
		c.Simulation.Threads = 4
		return c
	},
	// top-TCT lateral scan with a red laser line through the depth
	"top": func() *Config {
		c := DefaultConfig()
		c.Scan.Type = "top"
		c.Carriers.Beam.Mode = "top"
		c.Carriers.Beam.Y = 0
		c.Carriers.Beam.Waist = 5
		c.Scan.Lateral = sweep.Range{Init: -200, Step: 20, Count: 21}
		return c
	},
	// bias scan below and above full depletion, three depths
	"bias-scan": func() *Config {
		c := DefaultConfig()
		c.Scan.Type = "edge"
		c.Scan.Voltage = sweep.Range{Init: 20, Step: 20, Count: 10}
		c.Scan.Depth = sweep.Range{Init: -100, Step: 100, Count: 3}
		c.Simulation.Threads = 3
		return c
	},
	// irradiated sensor with trapping and diffusion
	"irradiated": func() *Config {
		c := DefaultConfig()
		c.Detector.Fluence = 1e14
		c.Detector.TrappingTime = 3e-9
		c.Detector.Diffusion = true
		c.Scan.Voltage = sweep.Range{Init: 100, Step: 100, Count: 3}
		c.Scan.Depth = sweep.Range{Init: -120, Step: 40, Count: 7}
		c.Simulation.Threads = 4
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

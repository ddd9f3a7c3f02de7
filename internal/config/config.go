package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tctsim/internal/sweep"
)

const (
	DefaultDt          = 50e-12 // s
	DefaultTotalTime   = 15e-9  // s
	DefaultThickness   = 300.0  // µm
	DefaultWidth       = 1000.0 // µm
	DefaultDoping      = 1e12   // cm^-3
	DefaultTemperature = 253.0  // K
	DefaultCapacitance = 2e-12  // F
	DefaultBias        = 100.0  // V
	DefaultPairs       = 200
	DefaultWaist       = 10.0 // µm
	DefaultDataDir     = "data"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Detector   DetectorConfig   `yaml:"detector"`
	Carriers   CarrierConfig    `yaml:"carriers"`
	Scan       ScanConfig       `yaml:"scan"`
	Simulation SimulationConfig `yaml:"simulation"`
	Shaping    ShapingConfig    `yaml:"shaping"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type DetectorConfig struct {
	// Model selects the field model: "pad" (planar diode) or "uniform".
	Model       string  `yaml:"model"`
	Thickness   float64 `yaml:"thickness"`   // µm
	Width       float64 `yaml:"width"`       // µm
	Doping      float64 `yaml:"doping"`      // effective bulk doping, cm^-3
	Temperature float64 `yaml:"temperature"` // K
	// Fluence in neq/cm². Zero means an unirradiated sensor: no trapping,
	// whatever TrappingTime says.
	Fluence      float64 `yaml:"fluence"`
	TrappingTime float64 `yaml:"trapping_time"` // s
	Diffusion    bool    `yaml:"diffusion"`
	Capacitance  float64 `yaml:"capacitance"` // F
	// Field is the drift field of the uniform model, V/µm.
	Field float64 `yaml:"field"`
}

// EffectiveTrapping is the trapping time handed to the detector; zero
// disables trapping.
func (d DetectorConfig) EffectiveTrapping() float64 {
	if d.Fluence == 0 {
		return 0
	}
	return d.TrappingTime
}

type CarrierConfig struct {
	// File is a carrier record file. When empty, carriers come from Beam.
	File string     `yaml:"file"`
	Beam BeamConfig `yaml:"beam"`
}

type BeamConfig struct {
	Mode    string  `yaml:"mode"` // edge | top
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Waist   float64 `yaml:"waist"`
	Pairs   int     `yaml:"pairs"`
	Charge  float64 `yaml:"charge"`
	GenTime float64 `yaml:"gen_time"`
}

type ScanConfig struct {
	Type    string      `yaml:"type"`
	Voltage sweep.Range `yaml:"voltage"`
	Lateral sweep.Range `yaml:"lateral"`
	Depth   sweep.Range `yaml:"depth"`
}

type SimulationConfig struct {
	Threads    int     `yaml:"threads"`
	Dt         float64 `yaml:"dt"`
	TotalTime  float64 `yaml:"total_time"`
	Integrator string  `yaml:"integrator"`
	Seed       int64   `yaml:"seed"`
}

type ShapingConfig struct {
	// Mode is one of none, rc, crrc, rc+crrc.
	Mode string  `yaml:"mode"`
	Tau  float64 `yaml:"tau"` // CR-RC shaping time, s
	Gain float64 `yaml:"gain"`
}

type OutputConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Detector: DetectorConfig{
			Model:       "pad",
			Thickness:   DefaultThickness,
			Width:       DefaultWidth,
			Doping:      DefaultDoping,
			Temperature: DefaultTemperature,
			Capacitance: DefaultCapacitance,
		},
		Carriers: CarrierConfig{
			Beam: BeamConfig{
				Mode:   "edge",
				X:      DefaultWidth / 2,
				Y:      DefaultThickness / 2,
				Waist:  DefaultWaist,
				Pairs:  DefaultPairs,
				Charge: 1,
			},
		},
		Scan: ScanConfig{
			Type:    "edge",
			Voltage: sweep.Single(DefaultBias),
			Lateral: sweep.Single(0),
			Depth:   sweep.Single(0),
		},
		Simulation: SimulationConfig{
			Threads:    1,
			Dt:         DefaultDt,
			TotalTime:  DefaultTotalTime,
			Integrator: "rk4",
		},
		Shaping: ShapingConfig{Mode: "rc"},
		Output:  OutputConfig{DataDir: DefaultDataDir},
		Logging: LoggingConfig{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides thread count, data directory and log level from
// TCTSIM_THREADS, TCTSIM_DATA and TCTSIM_LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TCTSIM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Simulation.Threads = n
		}
	}
	if v := os.Getenv("TCTSIM_DATA"); v != "" {
		c.Output.DataDir = v
	}
	if v := os.Getenv("TCTSIM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Grid builds the scan grid.
func (c *Config) Grid() (sweep.Grid, error) {
	return sweep.NewGrid(c.Scan.Voltage, c.Scan.Lateral, c.Scan.Depth)
}

func (c *Config) Validate() error {
	d := c.Detector
	switch d.Model {
	case "pad", "uniform":
	default:
		return fmt.Errorf("%w: unknown detector model %q (valid: pad, uniform)", ErrInvalidConfig, d.Model)
	}
	if d.Thickness <= 0 || d.Width <= 0 {
		return fmt.Errorf("%w: detector thickness and width must be positive", ErrInvalidConfig)
	}
	if d.Model == "pad" && d.Doping <= 0 {
		return fmt.Errorf("%w: doping must be positive", ErrInvalidConfig)
	}
	if d.Temperature <= 0 {
		return fmt.Errorf("%w: temperature must be positive", ErrInvalidConfig)
	}
	if d.Fluence != 0 && d.TrappingTime <= 0 {
		return fmt.Errorf("%w: irradiated sensor needs a positive trapping time", ErrInvalidConfig)
	}

	s := c.Simulation
	if s.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive", ErrInvalidConfig)
	}
	if s.TotalTime < s.Dt {
		return fmt.Errorf("%w: total_time %g shorter than dt %g", ErrInvalidConfig, s.TotalTime, s.Dt)
	}
	if s.Threads < 0 {
		return fmt.Errorf("%w: negative thread count %d", ErrInvalidConfig, s.Threads)
	}

	if _, err := c.Grid(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Carriers.File == "" {
		b := c.Carriers.Beam
		if b.Pairs < 1 || b.Charge <= 0 {
			return fmt.Errorf("%w: beam needs pairs >= 1 and positive charge", ErrInvalidConfig)
		}
	}

	switch c.Shaping.Mode {
	case "", "none", "rc":
	case "crrc", "rc+crrc":
		if c.Shaping.Tau <= 0 {
			return fmt.Errorf("%w: crrc shaping needs a positive tau", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown shaping mode %q (valid: none, rc, crrc, rc+crrc)", ErrInvalidConfig, c.Shaping.Mode)
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: invalid log level %q (valid: info, debug, trace)", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

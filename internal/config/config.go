package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/economics"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/motor"
	"github.com/san-kum/motorstart/internal/sim"
)

const (
	DefaultPowerHP     = 800.0
	DefaultVoltage     = 460.0
	DefaultFrequency   = 60.0
	DefaultPoles       = 4
	DefaultEfficiency  = 0.95
	DefaultPowerFactor = 0.88

	DefaultInertia    = 150.0
	DefaultDamping    = 2.0
	DefaultLoadFactor = 0.75

	DefaultVFDRamp        = 30.0
	DefaultBoost          = 0.15
	DefaultSoftStartRamp  = 20.0
	DefaultInitialVoltage = 0.3
)

type Config struct {
	Motor     MotorConfig     `yaml:"motor"`
	Mechanics MechanicsConfig `yaml:"mechanics"`
	Start     StartConfig     `yaml:"start"`
	Load      string          `yaml:"load"`
	Solver    SolverConfig    `yaml:"solver"`
	Economics EconomicsConfig `yaml:"economics"`
}

// MotorConfig is nameplate data. PowerKW wins over PowerHP when set.
type MotorConfig struct {
	PowerHP     float64 `yaml:"power_hp,omitempty"`
	PowerKW     float64 `yaml:"power_kw,omitempty"`
	Voltage     float64 `yaml:"voltage"`
	Frequency   float64 `yaml:"frequency"`
	Poles       int     `yaml:"poles"`
	Efficiency  float64 `yaml:"efficiency"`
	PowerFactor float64 `yaml:"power_factor"`
}

type MechanicsConfig struct {
	Inertia    float64 `yaml:"inertia"`
	Damping    float64 `yaml:"damping"`
	LoadFactor float64 `yaml:"load_factor"`
}

type StartConfig struct {
	Method    string          `yaml:"method"`
	Settle    float64         `yaml:"settle,omitempty"`
	VFD       VFDConfig       `yaml:"vfd"`
	SoftStart SoftStartConfig `yaml:"softstart"`
}

type VFDConfig struct {
	RampTime float64 `yaml:"ramp_time"`
	Boost    float64 `yaml:"boost"`
}

type SoftStartConfig struct {
	RampTime       float64 `yaml:"ramp_time"`
	InitialVoltage float64 `yaml:"initial_voltage"`
}

type SolverConfig struct {
	Integrator string  `yaml:"integrator"`
	Samples    int     `yaml:"samples"`
	RelTol     float64 `yaml:"rel_tol"`
	AbsTol     float64 `yaml:"abs_tol"`
	Dt         float64 `yaml:"dt"`
	MinStep    float64 `yaml:"min_step"`
	MaxStep    float64 `yaml:"max_step"`
	MaxSteps   int     `yaml:"max_steps"`
}

type EconomicsConfig struct {
	VFDInstalled           float64 `yaml:"vfd_installed"`
	SoftStarterInstalled   float64 `yaml:"softstart_installed"`
	DOLInstalled           float64 `yaml:"dol_installed"`
	HoursPerYear           float64 `yaml:"hours_per_year"`
	EnergyPrice            float64 `yaml:"energy_price"`
	StartsPerDay           float64 `yaml:"starts_per_day"`
	VFDRunningLoss         float64 `yaml:"vfd_running_loss"`
	SoftStarterRunningLoss float64 `yaml:"softstart_running_loss"`
}

func DefaultConfig() *Config {
	solver := dynamo.DefaultConfig()
	costs := economics.DefaultCosts()
	return &Config{
		Motor: MotorConfig{
			PowerHP:     DefaultPowerHP,
			Voltage:     DefaultVoltage,
			Frequency:   DefaultFrequency,
			Poles:       DefaultPoles,
			Efficiency:  DefaultEfficiency,
			PowerFactor: DefaultPowerFactor,
		},
		Mechanics: MechanicsConfig{
			Inertia:    DefaultInertia,
			Damping:    DefaultDamping,
			LoadFactor: DefaultLoadFactor,
		},
		Start: StartConfig{
			Method:    control.KindVFD.String(),
			VFD:       VFDConfig{RampTime: DefaultVFDRamp, Boost: DefaultBoost},
			SoftStart: SoftStartConfig{RampTime: DefaultSoftStartRamp, InitialVoltage: DefaultInitialVoltage},
		},
		Load: load.ConstantTorque.String(),
		Solver: SolverConfig{
			Integrator: sim.DefaultIntegrator,
			Samples:    sim.DefaultSamples,
			RelTol:     solver.Tolerance.Rel,
			AbsTol:     solver.Tolerance.Abs,
			Dt:         solver.Dt,
			MinStep:    solver.MinStep,
			MaxStep:    solver.MaxStep,
			MaxSteps:   solver.MaxSteps,
		},
		Economics: EconomicsConfig{
			VFDInstalled:           costs.VFDInstalled,
			SoftStarterInstalled:   costs.SoftStarterInstalled,
			DOLInstalled:           costs.DOLInstalled,
			HoursPerYear:           costs.HoursPerYear,
			EnergyPrice:            costs.EnergyPrice,
			StartsPerDay:           costs.StartsPerDay,
			VFDRunningLoss:         costs.VFDRunningLoss,
			SoftStarterRunningLoss: costs.SoftStarterRunningLoss,
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
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

func (c *Config) PowerKW() float64 {
	if c.Motor.PowerKW > 0 {
		return c.Motor.PowerKW
	}
	return motor.HPToKW(c.Motor.PowerHP)
}

func (c *Config) BuildMotor() (motor.Motor, error) {
	return motor.New(c.PowerKW(), c.Motor.Voltage, c.Motor.Frequency, c.Motor.Poles, c.Motor.Efficiency, c.Motor.PowerFactor)
}

func (c *Config) Mech() motor.Mechanics {
	return motor.Mechanics{
		Inertia:    c.Mechanics.Inertia,
		Damping:    c.Mechanics.Damping,
		LoadFactor: c.Mechanics.LoadFactor,
	}
}

// Method resolves a starting method by name using the ramp settings of
// this file. An empty name selects Start.Method.
func (c *Config) Method(name string) (control.Method, error) {
	if name == "" {
		name = c.Start.Method
	}
	kind, err := control.ParseKind(name)
	if err != nil {
		return control.Method{}, err
	}
	switch kind {
	case control.KindVFD:
		return control.VFD(c.Start.VFD.RampTime, c.Start.VFD.Boost), nil
	case control.KindSoftStarter:
		return control.SoftStarter(c.Start.SoftStart.RampTime, c.Start.SoftStart.InitialVoltage), nil
	default:
		return control.DOL(), nil
	}
}

func (c *Config) SolverConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Tolerance = dynamo.Tolerance{Rel: c.Solver.RelTol, Abs: c.Solver.AbsTol}
	cfg.Dt = c.Solver.Dt
	cfg.MinStep = c.Solver.MinStep
	cfg.MaxStep = c.Solver.MaxStep
	cfg.MaxSteps = c.Solver.MaxSteps
	if cfg.InitialStep < cfg.MinStep {
		cfg.InitialStep = cfg.MinStep
	}
	if cfg.InitialStep > cfg.MaxStep {
		cfg.InitialStep = cfg.MaxStep
	}
	return cfg
}

// ToSim builds a validated engine configuration for the named method
// (empty for the configured one).
func (c *Config) ToSim(method string) (sim.Config, error) {
	m, err := c.BuildMotor()
	if err != nil {
		return sim.Config{}, err
	}
	meth, err := c.Method(method)
	if err != nil {
		return sim.Config{}, err
	}
	lt, err := load.Parse(c.Load)
	if err != nil {
		return sim.Config{}, err
	}

	cfg := sim.NewConfig(m, c.Mech(), meth, lt)
	cfg.Samples = c.Solver.Samples
	cfg.Settle = c.Start.Settle
	cfg.Integrator = c.Solver.Integrator
	cfg.Solver = c.SolverConfig()
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}

func (c *Config) Costs() economics.Costs {
	e := c.Economics
	return economics.Costs{
		VFDInstalled:           e.VFDInstalled,
		SoftStarterInstalled:   e.SoftStarterInstalled,
		DOLInstalled:           e.DOLInstalled,
		HoursPerYear:           e.HoursPerYear,
		EnergyPrice:            e.EnergyPrice,
		StartsPerDay:           e.StartsPerDay,
		VFDRunningLoss:         e.VFDRunningLoss,
		SoftStarterRunningLoss: e.SoftStarterRunningLoss,
	}
}

// Package automation runs scripted batches, parameter sweeps and Monte
// Carlo robustness studies of motor starts.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/motorstart/internal/config"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/sim"
)

var (
	ErrUnknownParam = errors.New("automation: unknown sweep parameter")
	ErrEmptyBatch   = errors.New("automation: batch has no steps")
)

// Scenario is a batch file: a list of studies layered over one base
// configuration.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the base configuration for one study. Zero
// values keep the base.
type ScenarioStep struct {
	Name           string  `yaml:"name"`
	Preset         string  `yaml:"preset"`
	Method         string  `yaml:"method"`
	Load           string  `yaml:"load"`
	RampTime       float64 `yaml:"ramp_time"`
	Boost          float64 `yaml:"boost"`
	InitialVoltage float64 `yaml:"initial_voltage"`
	Inertia        float64 `yaml:"inertia"`
	LoadFactor     float64 `yaml:"load_factor"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyBatch)
	}
	return &scenario, nil
}

// Config resolves the step against base into an engine configuration.
func (s ScenarioStep) Config(base *config.Config) (sim.Config, error) {
	c := *base
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return sim.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
		c = *p
	}
	if s.Load != "" {
		c.Load = s.Load
	}
	if s.RampTime > 0 {
		c.Start.VFD.RampTime = s.RampTime
		c.Start.SoftStart.RampTime = s.RampTime
	}
	if s.Boost > 0 {
		c.Start.VFD.Boost = s.Boost
	}
	if s.InitialVoltage > 0 {
		c.Start.SoftStart.InitialVoltage = s.InitialVoltage
	}
	if s.Inertia > 0 {
		c.Mechanics.Inertia = s.Inertia
	}
	if s.LoadFactor > 0 {
		c.Mechanics.LoadFactor = s.LoadFactor
	}
	return c.ToSim(s.Method)
}

// Outcome is one finished study.
type Outcome struct {
	Name       string
	Config     sim.Config
	Trajectory *sim.Trajectory
	Report     *metrics.Report
}

// RunScenario resolves every step and simulates them concurrently. A step
// that fails to resolve aborts the batch before anything runs.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config) ([]Outcome, error) {
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyBatch
	}

	studies := make([]sim.Scenario, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg, err := step.Config(base)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%d: %s", i+1, cfg.Method.Kind.Title())
		}
		studies[i] = sim.Scenario{Name: name, Config: cfg}
	}

	log.WithFields(log.Fields{
		"batch": scenario.Name,
		"steps": len(studies),
	}).Info("running batch")

	trajs, err := sim.Compare(ctx, studies)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(studies))
	for i, traj := range trajs {
		rep, err := metrics.Compute(traj, studies[i].Config)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		outcomes[i] = Outcome{Name: studies[i].Name, Config: studies[i].Config, Trajectory: traj, Report: rep}
	}
	return outcomes, nil
}

// Sweepable parameters.
const (
	ParamRamp           = "ramp"
	ParamBoost          = "boost"
	ParamInitialVoltage = "initial_voltage"
	ParamInertia        = "inertia"
	ParamLoadFactor     = "load_factor"
	ParamDamping        = "damping"
)

func SweepParams() []string {
	return []string{ParamBoost, ParamDamping, ParamInertia, ParamInitialVoltage, ParamLoadFactor, ParamRamp}
}

// SetParam returns cfg with one named parameter replaced.
func SetParam(cfg sim.Config, name string, v float64) (sim.Config, error) {
	switch name {
	case ParamRamp:
		cfg.Method.RampTime = v
	case ParamBoost:
		cfg.Method.VoltageBoost = v
	case ParamInitialVoltage:
		cfg.Method.InitialVoltage = v
	case ParamInertia:
		cfg.Mechanics.Inertia = v
	case ParamLoadFactor:
		cfg.Mechanics.LoadFactor = v
	case ParamDamping:
		cfg.Mechanics.Damping = v
	default:
		return cfg, fmt.Errorf("%w: %q (available: %v)", ErrUnknownParam, name, SweepParams())
	}
	return cfg, nil
}

// ParameterSweep varies one parameter over evenly spaced values.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps < 2 {
		return []float64{s.ParamMin}
	}
	return floats.Span(make([]float64, s.NumSteps), s.ParamMin, s.ParamMax)
}

type SweepResult struct {
	ParamValue float64
	Summary    metrics.Summary
}

// RunSweep simulates base once per sweep value, in order.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base sim.Config) ([]SweepResult, error) {
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg, err := SetParam(base, sweep.ParamName, v)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}

		traj, err := sim.Run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
		rep, err := metrics.Compute(traj, cfg)
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{ParamValue: v, Summary: rep.Summary})
		log.WithFields(log.Fields{
			"step":  fmt.Sprintf("%d/%d", i+1, len(values)),
			"param": sweep.ParamName,
			"value": v,
		}).Debug("sweep point done")
	}
	return results, nil
}

// MonteCarloConfig perturbs the mechanical parameters of base with normal
// noise. Spreads are relative standard deviations.
type MonteCarloConfig struct {
	NumTrials     int
	Seed          int64
	InertiaSpread float64
	LoadSpread    float64
}

type MonteCarloResult struct {
	TrialID    int
	Inertia    float64
	LoadFactor float64
	Summary    metrics.Summary
	Err        error
}

// ReachedSpeed reports whether the trial got to 95% synchronous speed.
func (r MonteCarloResult) ReachedSpeed() bool {
	return r.Err == nil && !r.Summary.Stalled && r.Summary.TimeToSpeed >= 0
}

// RunMonteCarlo draws every trial's parameters up front from one seeded
// source, then simulates sequentially. Draws below a tenth of the nominal
// value are clamped to it.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, base sim.Config) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	draw := func(nominal, spread float64) float64 {
		v := nominal * (1 + spread*rng.NormFloat64())
		return max(v, nominal/10)
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	for i := range results {
		results[i] = MonteCarloResult{
			TrialID:    i,
			Inertia:    draw(base.Mechanics.Inertia, cfg.InertiaSpread),
			LoadFactor: draw(base.Mechanics.LoadFactor, cfg.LoadSpread),
		}
	}

	for i := range results {
		if err := ctx.Err(); err != nil {
			return results[:i], err
		}

		trial := base
		trial.Mechanics.Inertia = results[i].Inertia
		trial.Mechanics.LoadFactor = results[i].LoadFactor

		traj, err := sim.Run(ctx, trial)
		if err != nil {
			results[i].Err = err
			continue
		}
		rep, err := metrics.Compute(traj, trial)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Summary = rep.Summary

		if (i+1)%10 == 0 {
			log.WithField("trials", fmt.Sprintf("%d/%d", i+1, cfg.NumTrials)).Debug("monte carlo progress")
		}
	}
	return results, nil
}

// MonteCarloSummary aggregates trials that completed without error.
type MonteCarloSummary struct {
	Trials       int
	Failed       int
	ReachedSpeed int
	PeakMean     float64 // ×FLA
	PeakStdDev   float64
	PeakP95      float64
	EnergyMean   float64 // kJ
	TimeMean     float64 // s, over trials that reached speed
}

func MonteCarloStats(results []MonteCarloResult) MonteCarloSummary {
	s := MonteCarloSummary{Trials: len(results)}

	var peaks, energies, times []float64
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		peaks = append(peaks, r.Summary.PeakCurrentRatio)
		energies = append(energies, r.Summary.EnergyKJ)
		if r.ReachedSpeed() {
			s.ReachedSpeed++
			times = append(times, r.Summary.TimeToSpeed)
		}
	}
	if len(peaks) == 0 {
		return s
	}

	s.PeakMean, s.PeakStdDev = stat.MeanStdDev(peaks, nil)
	if len(peaks) < 2 {
		s.PeakStdDev = 0
	}
	sort.Float64s(peaks)
	s.PeakP95 = stat.Quantile(0.95, stat.Empirical, peaks, nil)
	s.EnergyMean = stat.Mean(energies, nil)
	if len(times) > 0 {
		s.TimeMean = stat.Mean(times, nil)
	}
	return s
}

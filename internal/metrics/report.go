package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/sim"
)

const (
	// SpeedThreshold is the fraction of synchronous speed that counts as
	// "up to speed" for TimeToSpeed.
	SpeedThreshold = 0.95
	// StallFraction is the final-speed fraction of synchronous speed below
	// which a start is flagged as stalled.
	StallFraction = 0.5
)

type Summary struct {
	PeakCurrent       float64 `json:"peak_current"`       // A
	PeakCurrentTime   float64 `json:"peak_current_time"`  // s
	PeakCurrentRatio  float64 `json:"peak_current_ratio"` // multiples of FLA
	PeakTorque        float64 `json:"peak_torque"`        // N·m
	FinalSpeed        float64 `json:"final_speed"`        // rad/s
	FinalSpeedRPM     float64 `json:"final_speed_rpm"`
	FinalSlip         float64 `json:"final_slip"` // %
	EnergyKJ          float64 `json:"energy_kj"`
	EnergyKWh         float64 `json:"energy_kwh"`
	AverageEfficiency float64 `json:"average_efficiency"` // %, over samples drawing power
	TimeToSpeed       float64 `json:"time_to_speed"`      // s, -1 if never reached
	Stalled           bool    `json:"stalled"`
}

type Report struct {
	Method  control.Method
	Load    load.Type
	Series  Series
	Summary Summary
}

// Compute derives the series and summary of a start. The trajectory must
// come from cfg; Compute does not re-run the simulation.
func Compute(traj *sim.Trajectory, cfg sim.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkTrajectory(traj); err != nil {
		return nil, err
	}

	eval, err := newEvaluator(cfg)
	if err != nil {
		return nil, err
	}

	series := newSeries(traj.Len())
	for i, t := range traj.Times {
		series.set(i, eval.sample(t, traj.Speeds[i]))
	}

	return &Report{
		Method:  cfg.Method,
		Load:    cfg.Load,
		Series:  series,
		Summary: summarize(&series, cfg),
	}, nil
}

func summarize(s *Series, cfg sim.Config) Summary {
	m := cfg.Motor
	sync := m.SyncSpeed()
	last := s.Len() - 1

	peak := floats.MaxIdx(s.Current)
	energy := integrate.Trapezoidal(s.Time, s.PowerIn)

	sum := Summary{
		PeakCurrent:      s.Current[peak],
		PeakCurrentTime:  s.Time[peak],
		PeakCurrentRatio: s.Current[peak] / m.FullLoadCurrent(),
		PeakTorque:       floats.Max(s.Torque),
		FinalSpeed:       s.Speed[last],
		FinalSpeedRPM:    s.SpeedRPM[last],
		FinalSlip:        s.Slip[last],
		EnergyKJ:         energy,
		EnergyKWh:        energy / 3600,
		TimeToSpeed:      -1,
		Stalled:          s.Speed[last] < StallFraction*sync,
	}

	drawing := make([]float64, 0, s.Len())
	for i, p := range s.PowerIn {
		if p > 0 {
			drawing = append(drawing, s.Efficiency[i])
		}
	}
	if len(drawing) > 0 {
		sum.AverageEfficiency = stat.Mean(drawing, nil)
	}

	for i, w := range s.Speed {
		if w >= SpeedThreshold*sync {
			sum.TimeToSpeed = s.Time[i]
			break
		}
	}
	return sum
}

// Comparison expresses a candidate start relative to a baseline.
type Comparison struct {
	CurrentReduction float64 // % of baseline peak current avoided
	EnergyDelta      float64 // kJ, candidate minus baseline
	EnergyRatio      float64 // candidate / baseline
	TimeToSpeedDelta float64 // s, candidate minus baseline; 0 if either never reached speed
}

func Compare(candidate, baseline Summary) Comparison {
	var c Comparison
	if baseline.PeakCurrent > 0 {
		c.CurrentReduction = 100 * (baseline.PeakCurrent - candidate.PeakCurrent) / baseline.PeakCurrent
	}
	c.EnergyDelta = candidate.EnergyKJ - baseline.EnergyKJ
	if baseline.EnergyKJ > 0 {
		c.EnergyRatio = candidate.EnergyKJ / baseline.EnergyKJ
	}
	if candidate.TimeToSpeed >= 0 && baseline.TimeToSpeed >= 0 {
		c.TimeToSpeedDelta = candidate.TimeToSpeed - baseline.TimeToSpeed
	}
	return c
}

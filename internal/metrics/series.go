package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/motor"
	"github.com/san-kum/motorstart/internal/sim"
)

var ErrInvalidTrajectory = errors.New("metrics: invalid trajectory")

const (
	// InactiveFrequency is the drive output below which a VFD start is
	// reported as not yet energised.
	InactiveFrequency = 0.5
	// MagnetizingFraction is the reactive current share of FLA that flows
	// regardless of torque.
	MagnetizingFraction = 0.3
	// SoftStarterCurrentFactor inflates current at reduced voltage.
	SoftStarterCurrentFactor = 1.2
	// SoftStarterMinVoltage is the voltage ratio at or below which no
	// inflation is applied.
	SoftStarterMinVoltage = 0.3
)

// Sample is one instant of a start.
type Sample struct {
	Time       float64 // s
	Frequency  float64 // Hz
	Voltage    float64 // V
	Speed      float64 // rad/s
	SpeedRPM   float64
	Slip       float64 // %
	Torque     float64 // N·m
	LoadTorque float64 // N·m
	Current    float64 // A
	PowerIn    float64 // kW
	PowerOut   float64 // kW
	Efficiency float64 // %
}

// Series holds equal-length columns indexed by sample position.
type Series struct {
	Time       []float64
	Frequency  []float64
	Voltage    []float64
	Speed      []float64
	SpeedRPM   []float64
	Slip       []float64
	Torque     []float64
	LoadTorque []float64
	Current    []float64
	PowerIn    []float64
	PowerOut   []float64
	Efficiency []float64
}

func newSeries(n int) Series {
	col := func() []float64 { return make([]float64, n) }
	return Series{
		Time: col(), Frequency: col(), Voltage: col(), Speed: col(),
		SpeedRPM: col(), Slip: col(), Torque: col(), LoadTorque: col(),
		Current: col(), PowerIn: col(), PowerOut: col(), Efficiency: col(),
	}
}

func (s *Series) Len() int { return len(s.Time) }

func (s *Series) set(i int, p Sample) {
	s.Time[i] = p.Time
	s.Frequency[i] = p.Frequency
	s.Voltage[i] = p.Voltage
	s.Speed[i] = p.Speed
	s.SpeedRPM[i] = p.SpeedRPM
	s.Slip[i] = p.Slip
	s.Torque[i] = p.Torque
	s.LoadTorque[i] = p.LoadTorque
	s.Current[i] = p.Current
	s.PowerIn[i] = p.PowerIn
	s.PowerOut[i] = p.PowerOut
	s.Efficiency[i] = p.Efficiency
}

func (s *Series) At(i int) Sample {
	return Sample{
		Time:       s.Time[i],
		Frequency:  s.Frequency[i],
		Voltage:    s.Voltage[i],
		Speed:      s.Speed[i],
		SpeedRPM:   s.SpeedRPM[i],
		Slip:       s.Slip[i],
		Torque:     s.Torque[i],
		LoadTorque: s.LoadTorque[i],
		Current:    s.Current[i],
		PowerIn:    s.PowerIn[i],
		PowerOut:   s.PowerOut[i],
		Efficiency: s.Efficiency[i],
	}
}

// evaluator computes a Sample from (t, ω) for a fixed configuration.
type evaluator struct {
	motor    motor.Motor
	kind     control.Kind
	loadType load.Type
	law      control.Law
	torque   motor.TorqueModel
	dol      motor.DOL
	baseLoad float64
}

func newEvaluator(cfg sim.Config) (*evaluator, error) {
	law, err := control.NewLaw(cfg.Method, cfg.Motor.BaseFrequency(), cfg.Motor.Voltage())
	if err != nil {
		return nil, err
	}
	return &evaluator{
		motor:    cfg.Motor,
		kind:     cfg.Method.Kind,
		loadType: cfg.Load,
		law:      law,
		torque:   motor.NewTorqueModel(cfg.Motor, cfg.Method),
		dol:      motor.NewDOL(cfg.Motor),
		baseLoad: cfg.Mechanics.BaseLoadTorque(cfg.Motor),
	}, nil
}

func (e *evaluator) sample(t, w float64) Sample {
	sp := e.law.Setpoint(t)
	p := Sample{
		Time:      t,
		Frequency: sp.Frequency,
		Voltage:   sp.Voltage,
		Speed:     w,
		SpeedRPM:  motor.RadToRPM(w),
	}

	if e.kind == control.KindVFD && sp.Frequency < InactiveFrequency {
		p.Slip = 100
		return p
	}

	m := e.motor
	fla := m.FullLoadCurrent()
	p.LoadTorque = load.Torque(w/m.SyncSpeed(), e.baseLoad, e.loadType)

	switch e.kind {
	case control.KindDOL:
		d := e.dol.At(t)
		p.Torque = d.Torque
		p.Current = d.Current
		p.Slip = 100 * motor.Slip(w, m.SyncSpeedAt(sp.Frequency))
	default:
		torque, slip := e.torque.Electromagnetic(w, sp)
		p.Torque = torque
		p.Slip = 100 * slip
		active := fla * torque / m.RatedTorque()
		p.Current = math.Hypot(active, MagnetizingFraction*fla)

		if e.kind == control.KindSoftStarter {
			vr := sp.Voltage / m.Voltage()
			if vr > SoftStarterMinVoltage && vr < 1 {
				p.Current *= SoftStarterCurrentFactor / vr
			}
		}
	}

	p.PowerIn = math.Sqrt(3) * sp.Voltage * p.Current * m.PowerFactor() / 1000
	p.PowerOut = w * p.LoadTorque / 1000
	if p.PowerIn > 0 {
		p.Efficiency = 100 * p.PowerOut / p.PowerIn
	}
	return p
}

func checkTrajectory(traj *sim.Trajectory) error {
	if traj == nil {
		return fmt.Errorf("%w: nil", ErrInvalidTrajectory)
	}
	if len(traj.Times) != len(traj.Speeds) {
		return fmt.Errorf("%w: %d times but %d speeds", ErrInvalidTrajectory, len(traj.Times), len(traj.Speeds))
	}
	if len(traj.Times) < sim.MinSamples {
		return fmt.Errorf("%w: need at least %d samples, got %d", ErrInvalidTrajectory, sim.MinSamples, len(traj.Times))
	}
	for i := 1; i < len(traj.Times); i++ {
		if !(traj.Times[i] > traj.Times[i-1]) {
			return fmt.Errorf("%w: time not increasing at sample %d", ErrInvalidTrajectory, i)
		}
	}
	return nil
}

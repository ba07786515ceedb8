package control

import "fmt"

const (
	// BoostCutoff is the fraction of base frequency below which a VFD adds
	// voltage boost on top of the V/f line.
	BoostCutoff = 0.1
	// StartupFrequency separates the VFD low-frequency torque regime from
	// the normal torque-slip curve.
	StartupFrequency = 1.0
	// TorqueBoostCutoff is the fraction of base frequency below which the
	// boost still lifts developed torque.
	TorqueBoostCutoff = 0.15
)

type Setpoint struct {
	Frequency float64
	Voltage   float64
}

type Law interface {
	Setpoint(t float64) Setpoint
	// Breakpoints lists times in (0, horizon] where the setpoint or the
	// torque regime it drives changes form.
	Breakpoints(horizon float64) []float64
	Method() Method
}

func NewLaw(m Method, baseFreq, lineVoltage float64) (Law, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if baseFreq <= 0 || lineVoltage <= 0 {
		return nil, fmt.Errorf("%w: base frequency and line voltage must be positive", ErrInvalidMethod)
	}

	switch m.Kind {
	case KindVFD:
		return &vfd{method: m, baseFreq: baseFreq, lineVoltage: lineVoltage}, nil
	case KindSoftStarter:
		return &softStarter{method: m, baseFreq: baseFreq, lineVoltage: lineVoltage}, nil
	default:
		return &direct{method: m, baseFreq: baseFreq, lineVoltage: lineVoltage}, nil
	}
}

type vfd struct {
	method      Method
	baseFreq    float64
	lineVoltage float64
}

func (v *vfd) Method() Method { return v.method }

func (v *vfd) Setpoint(t float64) Setpoint {
	f := v.baseFreq
	if t < v.method.RampTime {
		f = v.baseFreq * max(t, 0) / v.method.RampTime
	}

	volts := v.lineVoltage * f / v.baseFreq
	cutoff := v.baseFreq * BoostCutoff
	if f < cutoff {
		volts += v.lineVoltage * v.method.VoltageBoost * (1 - f/cutoff)
	}
	return Setpoint{Frequency: f, Voltage: volts}
}

func (v *vfd) Breakpoints(horizon float64) []float64 {
	ramp := v.method.RampTime
	times := []float64{
		ramp * StartupFrequency / v.baseFreq,
		ramp * BoostCutoff,
		ramp * TorqueBoostCutoff,
		ramp,
	}
	return within(times, horizon)
}

type softStarter struct {
	method      Method
	baseFreq    float64
	lineVoltage float64
}

func (s *softStarter) Method() Method { return s.method }

func (s *softStarter) Setpoint(t float64) Setpoint {
	ratio := 1.0
	if t < s.method.RampTime {
		v0 := s.method.InitialVoltage
		ratio = v0 + (1-v0)*max(t, 0)/s.method.RampTime
	}
	return Setpoint{Frequency: s.baseFreq, Voltage: s.lineVoltage * ratio}
}

func (s *softStarter) Breakpoints(horizon float64) []float64 {
	return within([]float64{s.method.RampTime}, horizon)
}

type direct struct {
	method      Method
	baseFreq    float64
	lineVoltage float64
}

func (d *direct) Method() Method { return d.method }

func (d *direct) Setpoint(t float64) Setpoint {
	return Setpoint{Frequency: d.baseFreq, Voltage: d.lineVoltage}
}

func (d *direct) Breakpoints(horizon float64) []float64 { return nil }

func within(times []float64, horizon float64) []float64 {
	out := make([]float64, 0, len(times))
	for _, t := range times {
		if t > 0 && t <= horizon {
			out = append(out, t)
		}
	}
	return out
}

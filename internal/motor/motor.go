package motor

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidNameplate = errors.New("motor: invalid nameplate data")

const (
	// RatedSlip is the slip assumed at rated load.
	RatedSlip = 0.03
	// KWPerHP converts mechanical horsepower to kilowatts.
	KWPerHP = 0.7457
)

func HPToKW(hp float64) float64 { return hp * KWPerHP }

// Motor is immutable nameplate data. Derived quantities are methods so
// they always follow their sources.
type Motor struct {
	ratedPowerKW float64
	voltage      float64
	baseFreq     float64
	poles        int
	efficiency   float64
	powerFactor  float64
}

func New(ratedPowerKW, voltage, baseFreq float64, poles int, efficiency, powerFactor float64) (Motor, error) {
	m := Motor{
		ratedPowerKW: ratedPowerKW,
		voltage:      voltage,
		baseFreq:     baseFreq,
		poles:        poles,
		efficiency:   efficiency,
		powerFactor:  powerFactor,
	}
	return m, m.Validate()
}

func (m Motor) Validate() error {
	switch {
	case m.ratedPowerKW <= 0:
		return fmt.Errorf("%w: rated power must be positive, got %g kW", ErrInvalidNameplate, m.ratedPowerKW)
	case m.voltage <= 0:
		return fmt.Errorf("%w: line voltage must be positive, got %g V", ErrInvalidNameplate, m.voltage)
	case m.baseFreq <= 0:
		return fmt.Errorf("%w: base frequency must be positive, got %g Hz", ErrInvalidNameplate, m.baseFreq)
	case m.poles < 2 || m.poles%2 != 0:
		return fmt.Errorf("%w: pole count must be even and >= 2, got %d", ErrInvalidNameplate, m.poles)
	case m.efficiency <= 0 || m.efficiency > 1:
		return fmt.Errorf("%w: efficiency must be in (0, 1], got %g", ErrInvalidNameplate, m.efficiency)
	case m.powerFactor <= 0 || m.powerFactor > 1:
		return fmt.Errorf("%w: power factor must be in (0, 1], got %g", ErrInvalidNameplate, m.powerFactor)
	}
	return nil
}

func (m Motor) RatedPowerKW() float64  { return m.ratedPowerKW }
func (m Motor) Voltage() float64       { return m.voltage }
func (m Motor) BaseFrequency() float64 { return m.baseFreq }
func (m Motor) Poles() int             { return m.poles }
func (m Motor) Efficiency() float64    { return m.efficiency }
func (m Motor) PowerFactor() float64   { return m.powerFactor }

// SyncSpeedRPMAt is the field speed at frequency f.
func (m Motor) SyncSpeedRPMAt(f float64) float64 {
	return 120 * f / float64(m.poles)
}

// SyncSpeedAt is the field speed at frequency f in rad/s.
func (m Motor) SyncSpeedAt(f float64) float64 {
	return RPMToRad(m.SyncSpeedRPMAt(f))
}

func (m Motor) SyncSpeedRPM() float64 { return m.SyncSpeedRPMAt(m.baseFreq) }
func (m Motor) SyncSpeed() float64    { return m.SyncSpeedAt(m.baseFreq) }

func (m Motor) RatedSpeedRPM() float64 { return m.SyncSpeedRPM() * (1 - RatedSlip) }

// RatedTorque in N·m.
func (m Motor) RatedTorque() float64 {
	return m.ratedPowerKW * 1000 / (m.SyncSpeed() * (1 - RatedSlip))
}

// FullLoadCurrent in amperes.
func (m Motor) FullLoadCurrent() float64 {
	return m.ratedPowerKW * 1000 / (math.Sqrt(3) * m.voltage * m.powerFactor * m.efficiency)
}

func RPMToRad(rpm float64) float64 { return rpm * 2 * math.Pi / 60 }
func RadToRPM(w float64) float64   { return w * 60 / (2 * math.Pi) }

// Mechanics describes the drive train seen by the rotor.
type Mechanics struct {
	Inertia    float64 `json:"inertia"`     // kg·m², motor plus load
	Damping    float64 `json:"damping"`     // N·m·s/rad
	LoadFactor float64 `json:"load_factor"` // load torque as a fraction of rated torque
}

func (k Mechanics) Validate() error {
	switch {
	case !(k.Inertia > 0):
		return fmt.Errorf("%w: inertia must be positive, got %g", ErrInvalidNameplate, k.Inertia)
	case k.Damping < 0:
		return fmt.Errorf("%w: damping must be non-negative, got %g", ErrInvalidNameplate, k.Damping)
	case !(k.LoadFactor > 0) || k.LoadFactor > 2:
		return fmt.Errorf("%w: load factor must be in (0, 2], got %g", ErrInvalidNameplate, k.LoadFactor)
	}
	return nil
}

// BaseLoadTorque is the load torque at synchronous speed.
func (k Mechanics) BaseLoadTorque(m Motor) float64 {
	return m.RatedTorque() * k.LoadFactor
}

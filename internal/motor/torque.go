package motor

import "github.com/san-kum/motorstart/internal/control"

// Shape constants of the empirical torque-slip curve
// T/T_rated = a·s / (s² + b·s + c). The curve peaks near s = 0.28 and
// gives a non-zero locked-rotor torque at s = 1.
const (
	CurveA = 2.5
	CurveB = 0.15
	CurveC = 0.08
)

const (
	// StartupTorqueGain scales slip to torque below control.StartupFrequency,
	// where the rational curve misbehaves.
	StartupTorqueGain = 2.5
	// StartupBoostGain multiplies the VFD boost fraction in that regime.
	StartupBoostGain = 5.0
	// MinSyncSpeed (rad/s) is the field speed below which the motor is
	// treated as unexcited.
	MinSyncSpeed = 0.1
)

// CurveRatio is the torque-slip characteristic relative to rated torque.
func CurveRatio(slip float64) float64 {
	return CurveA * slip / (slip*slip + CurveB*slip + CurveC)
}

// Slip returns (sync-speed)/sync clamped to [0, 1]. Overspeed and reverse
// rotation are outside the motoring-only model.
func Slip(speed, sync float64) float64 {
	s := (sync - speed) / sync
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

type TorqueModel struct {
	motor  Motor
	method control.Method
}

func NewTorqueModel(m Motor, method control.Method) TorqueModel {
	return TorqueModel{motor: m, method: method}
}

// Electromagnetic returns developed torque (N·m) and slip at rotor speed
// (rad/s) under the given setpoint.
func (tm TorqueModel) Electromagnetic(speed float64, sp control.Setpoint) (float64, float64) {
	sync := tm.motor.SyncSpeedAt(sp.Frequency)
	if sync < MinSyncSpeed {
		return 0, 0
	}
	slip := Slip(speed, sync)
	rated := tm.motor.RatedTorque()

	if tm.method.Kind != control.KindVFD {
		vr := sp.Voltage / tm.motor.Voltage()
		return rated * CurveRatio(slip) * vr * vr, slip
	}

	boost := tm.method.VoltageBoost
	if sp.Frequency < control.StartupFrequency {
		return rated * StartupTorqueGain * slip * (1 + StartupBoostGain*boost), slip
	}

	base := tm.motor.BaseFrequency()
	torque := rated * CurveRatio(slip) * sp.Frequency / base

	cutoff := base * control.TorqueBoostCutoff
	if sp.Frequency < cutoff {
		torque *= 1 + boost*(1-sp.Frequency/cutoff)
	}
	return torque, slip
}

package motor

import "math"

// Calibration constants of the direct-on-line approximation. They are
// empirical fits, not derived from the torque model, and should be checked
// against measured starts before being relied on.
const (
	DOLTimeConstant = 2.0  // s, exponential speed rise
	DOLInrush       = 6.5  // locked-rotor current, multiples of FLA
	DOLLockedTorque = 2.5  // locked-rotor torque, multiples of rated
	DOLSpeedCeiling = 0.97 // final speed as a fraction of synchronous
)

const (
	dolCurrentSpan    = 5.5
	dolTorqueSpan     = 2.5
	dolTorqueBaseline = 1.0
)

// DOLPoint is one sample of the closed-form DOL start.
type DOLPoint struct {
	Speed   float64 // rad/s
	Current float64 // A
	Torque  float64 // N·m
}

// DOL approximates a direct-on-line start without integrating the
// equation of motion. Speed rises as 1-exp(-t/τ) toward 97 % of
// synchronous speed while current and torque fall affinely with the
// remaining slip.
type DOL struct {
	motor Motor
}

func NewDOL(m Motor) DOL {
	return DOL{motor: m}
}

func (d DOL) At(t float64) DOLPoint {
	fla := d.motor.FullLoadCurrent()
	rated := d.motor.RatedTorque()

	if t <= 0 {
		return DOLPoint{
			Speed:   0,
			Current: DOLInrush * fla,
			Torque:  DOLLockedTorque * rated,
		}
	}

	r := 1 - math.Exp(-t/DOLTimeConstant)
	slip := 1 - DOLSpeedCeiling*r
	return DOLPoint{
		Speed:   DOLSpeedCeiling * d.motor.SyncSpeed() * r,
		Current: fla * (1 + dolCurrentSpan*slip),
		Torque:  rated * (dolTorqueSpan*slip + dolTorqueBaseline),
	}
}

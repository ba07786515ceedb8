// Package load maps rotor speed to the torque demanded by the driven
// machine.
package load

import (
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("load: unknown load type")

type Type int

const (
	// ConstantTorque covers hoists, conveyors and positive displacement pumps.
	ConstantTorque Type = iota
	// FanPump covers centrifugal fans and pumps (affinity law).
	FanPump
	// ConstantPower covers winders and machine tools.
	ConstantPower
)

const (
	// Breakaway is the fraction of base torque a constant-torque load
	// demands at standstill.
	Breakaway = 0.3
	// PowerFloor is the speed ratio below which a constant-power load stops
	// following 1/r.
	PowerFloor = 0.1
)

var names = map[Type]string{
	ConstantTorque: "constant_torque",
	FanPump:        "fan_pump",
	ConstantPower:  "constant_power",
}

func Types() []Type {
	return []Type{ConstantTorque, FanPump, ConstantPower}
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("load(%d)", int(t))
}

// Title is the human label used in reports.
func (t Type) Title() string {
	switch t {
	case FanPump:
		return "Fan / Pump"
	case ConstantPower:
		return "Constant Power"
	default:
		return "Constant Torque"
	}
}

func (t Type) Validate() error {
	if _, ok := names[t]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return nil
}

func Parse(s string) (Type, error) {
	for t, n := range names {
		if n == s {
			return t, nil
		}
	}
	return ConstantTorque, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Torque returns the load torque at the given speed ratio (rotor speed over
// synchronous speed at base frequency). The ratio is clamped to [0, 1].
func Torque(speedRatio, base float64, t Type) float64 {
	r := speedRatio
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}

	switch t {
	case FanPump:
		return base * r * r
	case ConstantPower:
		if r < PowerFloor {
			return base
		}
		return base / r
	default:
		return base * (Breakaway + (1-Breakaway)*r)
	}
}

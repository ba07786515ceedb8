package control

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod = errors.New("control: unknown starting method")
	ErrInvalidMethod = errors.New("control: invalid starting method parameters")
)

type Kind int

const (
	KindVFD Kind = iota
	KindSoftStarter
	KindDOL
)

// DOLWindow is the fixed horizon, in seconds, for direct-on-line starts.
const DOLWindow = 5.0

var kindNames = map[Kind]string{
	KindVFD:         "vfd",
	KindSoftStarter: "softstart",
	KindDOL:         "dol",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("method(%d)", int(k))
}

func (k Kind) Title() string {
	switch k {
	case KindVFD:
		return "VFD"
	case KindSoftStarter:
		return "Soft Starter"
	case KindDOL:
		return "DOL"
	}
	return k.String()
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "vfd":
		return KindVFD, nil
	case "softstart", "soft_starter", "soft-starter":
		return KindSoftStarter, nil
	case "dol":
		return KindDOL, nil
	}
	return KindVFD, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Method is the starting-method configuration. Only the fields belonging
// to Kind are meaningful.
type Method struct {
	Kind           Kind
	RampTime       float64
	VoltageBoost   float64
	InitialVoltage float64
}

func VFD(rampTime, boost float64) Method {
	return Method{Kind: KindVFD, RampTime: rampTime, VoltageBoost: boost}
}

func SoftStarter(rampTime, initialVoltage float64) Method {
	return Method{Kind: KindSoftStarter, RampTime: rampTime, InitialVoltage: initialVoltage}
}

func DOL() Method {
	return Method{Kind: KindDOL}
}

func (m Method) Validate() error {
	switch m.Kind {
	case KindVFD:
		if m.RampTime <= 0 {
			return fmt.Errorf("%w: ramp time must be positive, got %g", ErrInvalidMethod, m.RampTime)
		}
		if m.VoltageBoost < 0 || m.VoltageBoost > 1 {
			return fmt.Errorf("%w: voltage boost must be in [0, 1], got %g", ErrInvalidMethod, m.VoltageBoost)
		}
	case KindSoftStarter:
		if m.RampTime <= 0 {
			return fmt.Errorf("%w: ramp time must be positive, got %g", ErrInvalidMethod, m.RampTime)
		}
		if m.InitialVoltage <= 0 || m.InitialVoltage > 1 {
			return fmt.Errorf("%w: initial voltage must be in (0, 1], got %g", ErrInvalidMethod, m.InitialVoltage)
		}
	case KindDOL:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(m.Kind))
	}
	return nil
}

// Horizon is the default simulated duration for the method.
func (m Method) Horizon() float64 {
	if m.Kind == KindDOL {
		return DOLWindow
	}
	return m.RampTime
}

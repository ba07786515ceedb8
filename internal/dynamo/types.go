package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is the right-hand side of dX/dt = f(X, t). Derive must be a pure
// function of its arguments.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Bounded systems project an accepted state back into their admissible set.
type Bounded interface {
	Clamp(x State) State
}

// Discontinuous systems report times inside [0, horizon] where the
// right-hand side changes form. Steps never straddle these times.
type Discontinuous interface {
	Breakpoints(horizon float64) []float64
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) State
}

// Tolerance is the mixed error target for adaptive stepping:
// |err_i| <= Abs + Rel*max(|x_i|, |xNew_i|).
type Tolerance struct {
	Rel float64
	Abs float64
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (State, float64, error)
}

type Config struct {
	Dt            float64
	Tolerance     Tolerance
	InitialStep   float64
	MinStep       float64
	MaxStep       float64
	MaxSteps      int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-3,
		Tolerance:     Tolerance{Rel: 1e-6, Abs: 1e-6},
		InitialStep:   1e-3,
		MinStep:       1e-4,
		MaxStep:       1.0,
		MaxSteps:      2_000_000,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, c.Dt)
	}
	if c.Tolerance.Rel <= 0 || c.Tolerance.Abs <= 0 {
		return fmt.Errorf("%w: tolerances must be positive", ErrParameterBounds)
	}
	if c.MinStep <= 0 || c.InitialStep < c.MinStep || c.MaxStep < c.InitialStep {
		return fmt.Errorf("%w: need 0 < min step <= initial step <= max step", ErrParameterBounds)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", ErrParameterBounds, c.MaxSteps)
	}
	return nil
}

// Stats counts the work an integration performed.
type Stats struct {
	Accepted    int `json:"accepted"`
	Rejected    int `json:"rejected"`
	Forced      int `json:"forced"`
	Evaluations int `json:"evaluations"`
}

type Result struct {
	States []State
	Times  []float64
	Stats  Stats
}

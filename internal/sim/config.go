package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/integrators"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/motor"
)

const (
	DefaultSamples    = 1000
	DefaultIntegrator = "rk45"
	// MinSamples is the smallest grid that still has a start and an end.
	MinSamples = 2
)

// Config fully describes one startup study. It is a plain value; runs
// never mutate it.
type Config struct {
	Motor      motor.Motor
	Mechanics  motor.Mechanics
	Method     control.Method
	Load       load.Type
	Samples    int
	Settle     float64 // seconds simulated after the ramp
	Integrator string
	Solver     dynamo.Config
}

// NewConfig fills sampling and solver defaults around the physical
// description.
func NewConfig(m motor.Motor, mech motor.Mechanics, method control.Method, lt load.Type) Config {
	return Config{
		Motor:      m,
		Mechanics:  mech,
		Method:     method,
		Load:       lt,
		Samples:    DefaultSamples,
		Integrator: DefaultIntegrator,
		Solver:     dynamo.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if err := c.Motor.Validate(); err != nil {
		return fmt.Errorf("motor: %w", err)
	}
	if err := c.Mechanics.Validate(); err != nil {
		return fmt.Errorf("mechanics: %w", err)
	}
	if err := c.Method.Validate(); err != nil {
		return fmt.Errorf("method: %w", err)
	}
	if err := c.Load.Validate(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if c.Samples < MinSamples {
		return fmt.Errorf("samples: %w: need at least %d, got %d", dynamo.ErrParameterBounds, MinSamples, c.Samples)
	}
	if c.Settle < 0 {
		return fmt.Errorf("settle: %w: must be non-negative, got %g", dynamo.ErrParameterBounds, c.Settle)
	}
	if c.Method.Kind == control.KindDOL {
		return nil
	}
	if _, err := integrators.ByName(c.integrator()); err != nil {
		return fmt.Errorf("integrator: %w", err)
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	return nil
}

// Horizon is the simulated duration in seconds.
func (c Config) Horizon() float64 {
	return c.Method.Horizon() + c.Settle
}

// Times is the evenly spaced output grid over [0, Horizon].
func (c Config) Times() []float64 {
	return floats.Span(make([]float64, c.Samples), 0, c.Horizon())
}

func (c Config) integrator() string {
	if c.Integrator == "" {
		return DefaultIntegrator
	}
	return c.Integrator
}

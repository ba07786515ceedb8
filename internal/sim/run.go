package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/integrators"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/motor"
)

// Trajectory is the sampled rotor speed of one start. Times are strictly
// increasing and aligned with Speeds.
type Trajectory struct {
	Method control.Method
	Load   load.Type
	Times  []float64
	Speeds []float64 // rad/s
	Stats  dynamo.Stats
}

func (t *Trajectory) Len() int { return len(t.Times) }

func (t *Trajectory) FinalSpeed() float64 {
	if len(t.Speeds) == 0 {
		return 0
	}
	return t.Speeds[len(t.Speeds)-1]
}

// Run simulates one start. A motor that stalls is a valid result; only
// invalid configuration, cancellation and solver failure return errors.
func Run(ctx context.Context, cfg Config) (*Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	times := cfg.Times()
	traj := &Trajectory{
		Method: cfg.Method,
		Load:   cfg.Load,
		Times:  times,
		Speeds: make([]float64, len(times)),
	}

	if cfg.Method.Kind == control.KindDOL {
		dol := motor.NewDOL(cfg.Motor)
		for i, t := range times {
			traj.Speeds[i] = dol.At(t).Speed
		}
		return traj, nil
	}

	law, err := control.NewLaw(cfg.Method, cfg.Motor.BaseFrequency(), cfg.Motor.Voltage())
	if err != nil {
		return nil, err
	}
	integ, err := integrators.ByName(cfg.integrator())
	if err != nil {
		return nil, err
	}

	sys := motor.NewStartup(cfg.Motor, cfg.Mechanics, law, cfg.Load)
	res, err := dynamo.New(sys, integ).RunSampled(ctx, dynamo.State{0}, times, cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("%s start: %w", cfg.Method.Kind, err)
	}

	for i, x := range res.States {
		traj.Speeds[i] = x[0]
	}
	traj.Stats = res.Stats
	return traj, nil
}

package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

type Simulator struct {
	dyn        System
	integrator Integrator
}

func New(dyn System, integrator Integrator) *Simulator {
	return &Simulator{dyn: dyn, integrator: integrator}
}

// counter tallies right-hand side evaluations for Stats.
type counter struct {
	System
	n int
}

func (c *counter) Derive(x State, t float64) State {
	c.n++
	return c.System.Derive(x, t)
}

// RunSampled integrates from times[0] and records the state at every entry
// of times, which must be strictly increasing.
func (s *Simulator) RunSampled(ctx context.Context, x0 State, times []float64, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateGrid(times); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system wants %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	dyn := &counter{System: s.dyn}
	breaks := s.breakpoints(times)

	result := &Result{
		States: make([]State, 0, len(times)),
		Times:  make([]float64, 0, len(times)),
	}

	x := s.clamp(x0.Clone())
	t := times[0]
	h := cfg.InitialStep

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	adaptive, isAdaptive := s.integrator.(AdaptiveIntegrator)

	for k := 1; k < len(times); k++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		target := times[k]
		for t < target {
			stop := nextStop(breaks, t, target)
			remaining := stop - t

			var newX State
			if isAdaptive {
				if h > remaining {
					h = remaining
				}
				var next float64
				var err error
				newX, next, err = adaptive.StepAdaptive(dyn, x, t, h, cfg.Tolerance)
				if errors.Is(err, ErrStepRejected) {
					if h > cfg.MinStep {
						result.Stats.Rejected++
						h = math.Max(next, cfg.MinStep)
						continue
					}
					result.Stats.Forced++
				} else if err != nil {
					return result, &SimulationError{Step: result.Stats.Accepted, Time: t, State: x, Wrapped: err}
				}
				t = advance(t, h, stop)
				h = math.Min(math.Max(next, cfg.MinStep), cfg.MaxStep)
			} else {
				step := math.Min(cfg.Dt, remaining)
				newX = s.integrator.Step(dyn, x, t, step)
				t = advance(t, step, stop)
			}

			if cfg.ValidateState && !newX.IsValid() {
				return result, &SimulationError{Step: result.Stats.Accepted, Time: t, State: newX, Wrapped: ErrInvalidState}
			}

			x = s.clamp(newX)
			result.Stats.Accepted++

			if result.Stats.Accepted+result.Stats.Rejected > cfg.MaxSteps {
				return result, &SimulationError{Step: result.Stats.Accepted, Time: t, State: x, Wrapped: ErrNonConvergence}
			}
		}

		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, target)
	}

	result.Stats.Evaluations = dyn.n
	return result, nil
}

func (s *Simulator) clamp(x State) State {
	if b, ok := s.dyn.(Bounded); ok {
		return b.Clamp(x)
	}
	return x
}

func (s *Simulator) breakpoints(times []float64) []float64 {
	d, ok := s.dyn.(Discontinuous)
	if !ok {
		return nil
	}
	start, end := times[0], times[len(times)-1]
	var out []float64
	for _, b := range d.Breakpoints(end) {
		if b > start && b < end {
			out = append(out, b)
		}
	}
	sort.Float64s(out)
	return out
}

func validateGrid(times []float64) error {
	if len(times) < 2 {
		return fmt.Errorf("%w: need at least 2 sample times, got %d", ErrParameterBounds, len(times))
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return fmt.Errorf("%w: sample times must be strictly increasing (index %d)", ErrParameterBounds, i)
		}
	}
	return nil
}

// nextStop returns the first breakpoint in (t, target), or target.
func nextStop(breaks []float64, t, target float64) float64 {
	i := sort.SearchFloat64s(breaks, t)
	for ; i < len(breaks); i++ {
		if breaks[i] > t {
			if breaks[i] < target {
				return breaks[i]
			}
			break
		}
	}
	return target
}

// advance snaps to stop when the step lands within rounding distance of it.
func advance(t, h, stop float64) float64 {
	next := t + h
	if stop-next <= 1e-12*math.Max(1, math.Abs(stop)) {
		return stop
	}
	return next
}

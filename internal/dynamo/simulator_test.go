package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

type decay struct{}

func (d *decay) Derive(x State, t float64) State { return State{-x[0]} }
func (d *decay) StateDim() int                   { return 1 }

type testIntegrator struct{}

func (e *testIntegrator) Step(dyn System, x State, t, dt float64) State {
	dx := dyn.Derive(x, t)
	return State{x[0] + dt*dx[0]}
}

// heun is a 2(1) embedded pair, enough to exercise adaptive control.
type heun struct{ reject bool }

func (h *heun) Step(dyn System, x State, t, dt float64) State {
	next, _, _ := h.StepAdaptive(dyn, x, t, dt, Tolerance{Rel: 1, Abs: 1})
	return next
}

func (h *heun) StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (State, float64, error) {
	if h.reject {
		return x, dt / 2, ErrStepRejected
	}
	k1 := dyn.Derive(x, t)
	euler := State{x[0] + dt*k1[0]}
	k2 := dyn.Derive(euler, t+dt)
	next := State{x[0] + dt*0.5*(k1[0]+k2[0])}
	errEst := math.Abs(next[0] - euler[0])
	scale := tol.Abs + tol.Rel*math.Max(math.Abs(x[0]), math.Abs(next[0]))
	if errEst > scale {
		return x, dt * 0.5, ErrStepRejected
	}
	return next, dt * 1.5, nil
}

func grid(n int, end float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = end * float64(i) / float64(n-1)
	}
	return out
}

func TestSimulatorRunSampled(t *testing.T) {
	s := New(&decay{}, &testIntegrator{})
	cfg := DefaultConfig()
	cfg.Dt = 0.001

	result, err := s.RunSampled(context.Background(), State{1.0}, grid(11, 1.0), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.Times[10] != 1.0 {
		t.Errorf("expected last sample at 1.0, got %f", result.Times[10])
	}

	final := result.States[10][0]
	if math.Abs(final-math.Exp(-1.0)) > 1e-3 {
		t.Errorf("expected final state ~%.4f, got %.4f", math.Exp(-1.0), final)
	}
}

func TestSimulatorAdaptive(t *testing.T) {
	s := New(&decay{}, &heun{})
	cfg := DefaultConfig()

	result, err := s.RunSampled(context.Background(), State{1.0}, grid(5, 2.0), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	final := result.States[len(result.States)-1][0]
	if math.Abs(final-math.Exp(-2.0)) > 1e-3 {
		t.Errorf("expected final state ~%.4f, got %.4f", math.Exp(-2.0), final)
	}
	if result.Stats.Evaluations == 0 {
		t.Error("expected evaluations to be counted")
	}
}

func TestSimulatorForcedSteps(t *testing.T) {
	s := New(&decay{}, &heun{reject: true})
	cfg := DefaultConfig()
	cfg.MinStep = 0.01
	cfg.InitialStep = 0.01

	result, err := s.RunSampled(context.Background(), State{1.0}, grid(2, 0.1), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Stats.Forced == 0 {
		t.Error("expected forced steps when error control never succeeds")
	}
}

func TestSimulatorNonConvergence(t *testing.T) {
	s := New(&decay{}, &heun{reject: true})
	cfg := DefaultConfig()
	cfg.MinStep = 1e-6
	cfg.InitialStep = 1e-6
	cfg.MaxSteps = 100

	_, err := s.RunSampled(context.Background(), State{1.0}, grid(2, 1.0), cfg)
	if !errors.Is(err, ErrNonConvergence) {
		t.Fatalf("expected ErrNonConvergence, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatal("expected *SimulationError")
	}
	if simErr.Step == 0 {
		t.Error("expected step count in error")
	}
}

type floored struct{ breaks []float64 }

func (f *floored) Derive(x State, t float64) State { return State{-10} }
func (f *floored) StateDim() int                   { return 1 }
func (f *floored) Clamp(x State) State {
	if x[0] < 0 {
		return State{0}
	}
	return x
}
func (f *floored) Breakpoints(horizon float64) []float64 { return f.breaks }

func TestSimulatorClampAndBreakpoints(t *testing.T) {
	dyn := &floored{breaks: []float64{0.25, 5.0, -1}}
	s := New(dyn, &testIntegrator{})
	cfg := DefaultConfig()
	cfg.Dt = 0.1

	result, err := s.RunSampled(context.Background(), State{0.5}, grid(3, 1.0), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, x := range result.States {
		if x[0] < 0 {
			t.Errorf("state %d below floor: %f", i, x[0])
		}
	}

	got := s.breakpoints([]float64{0, 1})
	if len(got) != 1 || got[0] != 0.25 {
		t.Errorf("expected breakpoints [0.25], got %v", got)
	}
}

func TestSimulatorInvalidInput(t *testing.T) {
	s := New(&decay{}, &testIntegrator{})

	tests := []struct {
		name  string
		cfg   func(c *Config)
		times []float64
		x0    State
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, grid(3, 1), State{1}},
		{"zero tolerance", func(c *Config) { c.Tolerance.Rel = 0 }, grid(3, 1), State{1}},
		{"min above initial", func(c *Config) { c.MinStep = 1 }, grid(3, 1), State{1}},
		{"no step budget", func(c *Config) { c.MaxSteps = 0 }, grid(3, 1), State{1}},
		{"single sample", func(c *Config) {}, []float64{0}, State{1}},
		{"non increasing", func(c *Config) {}, []float64{0, 1, 1}, State{1}},
		{"wrong dimension", func(c *Config) {}, grid(3, 1), State{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			if _, err := s.RunSampled(context.Background(), tt.x0, tt.times, cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorCanceled(t *testing.T) {
	s := New(&decay{}, &testIntegrator{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RunSampled(ctx, State{1}, grid(3, 1), DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParallelFor(t *testing.T) {
	hits := make([]int, 37)
	ParallelFor(len(hits), 1, func(start, end int) {
		for i := start; i < end; i++ {
			hits[i]++
		}
	})
	for i, h := range hits {
		if h != 1 {
			t.Errorf("index %d visited %d times", i, h)
		}
	}
}

package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/load"
)

// Scenario is a named configuration in a comparison.
type Scenario struct {
	Name   string
	Config Config
}

// Compare runs every scenario concurrently and returns trajectories in
// scenario order. Runs share nothing, so one goroutine each is enough.
func Compare(ctx context.Context, scenarios []Scenario) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(scenarios))
	errs := make([]error, len(scenarios))

	var wg sync.WaitGroup
	for i := range scenarios {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = Run(ctx, scenarios[idx].Config)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenarios[i].Name, err)
		}
	}
	return results, nil
}

// MethodScenarios varies the starting method over a shared base.
func MethodScenarios(base Config, methods ...control.Method) []Scenario {
	out := make([]Scenario, 0, len(methods))
	for _, m := range methods {
		cfg := base
		cfg.Method = m
		out = append(out, Scenario{Name: m.Kind.Title(), Config: cfg})
	}
	return out
}

// LoadScenarios varies the load type over a shared base, in load.Types order.
func LoadScenarios(base Config) []Scenario {
	types := load.Types()
	out := make([]Scenario, 0, len(types))
	for _, lt := range types {
		cfg := base
		cfg.Load = lt
		out = append(out, Scenario{Name: lt.Title(), Config: cfg})
	}
	return out
}

// CompareLoads runs the base method against every load type.
func CompareLoads(ctx context.Context, base Config) ([]Scenario, []*Trajectory, error) {
	scenarios := LoadScenarios(base)
	trajs, err := Compare(ctx, scenarios)
	return scenarios, trajs, err
}

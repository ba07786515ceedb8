// Package optim tunes starting-method parameters by exhaustive grid search.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/sim"
)

var (
	ErrNoFeasible    = errors.New("optim: no grid point brings the motor up to speed")
	ErrNotTunable    = errors.New("optim: method has no tunable parameters")
	ErrUnknownTarget = errors.New("optim: unknown objective")
	ErrEmptyGrid     = errors.New("optim: empty parameter grid")
)

const (
	ParamRamp           = "ramp"
	ParamBoost          = "boost"
	ParamInitialVoltage = "initial_voltage"
)

// Objective is the summary quantity a search minimises.
type Objective string

const (
	PeakCurrent Objective = "peak"
	Energy      Objective = "energy"
	TimeToSpeed Objective = "time"
)

func ParseObjective(s string) (Objective, error) {
	switch o := Objective(s); o {
	case PeakCurrent, Energy, TimeToSpeed:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q (available: peak, energy, time)", ErrUnknownTarget, s)
}

func (o Objective) Of(s metrics.Summary) float64 {
	switch o {
	case Energy:
		return s.EnergyKJ
	case TimeToSpeed:
		return s.TimeToSpeed
	default:
		return s.PeakCurrentRatio
	}
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params  map[string]float64
	Summary metrics.Summary
	Err     error
}

// Feasible reports whether the start reached speed without stalling.
func (c Candidate) Feasible() bool {
	return c.Err == nil && !c.Summary.Stalled && c.Summary.TimeToSpeed >= 0
}

type Result struct {
	Objective  Objective
	Best       Candidate
	Candidates []Candidate
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Points enumerates the cartesian product of the ranges, first parameter
// varying slowest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.collect(0, map[string]float64{}, &points)
	return points
}

func (g *GridSearch) collect(depth int, current map[string]float64, points *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*points = append(*points, p)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.collect(depth+1, current, points)
	}
	delete(current, name)
}

// Search simulates every grid point concurrently and returns the feasible
// point with the lowest objective. Ties keep the earlier point.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (sim.Config, error),
	objective Objective,
) (*Result, error) {
	points := g.Points()
	if len(points) == 0 || len(g.paramNames) == 0 {
		return nil, ErrEmptyGrid
	}

	candidates := make([]Candidate, len(points))
	dynamo.ParallelFor(len(points), 1, func(start, end int) {
		for i := start; i < end; i++ {
			candidates[i] = evaluate(ctx, build, points[i])
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Objective: objective, Candidates: candidates}
	best := math.Inf(1)
	found := false
	for _, c := range candidates {
		if !c.Feasible() {
			continue
		}
		if v := objective.Of(c.Summary); v < best {
			best = v
			res.Best = c
			found = true
		}
	}
	if !found {
		return res, ErrNoFeasible
	}
	return res, nil
}

func evaluate(ctx context.Context, build func(map[string]float64) (sim.Config, error), params map[string]float64) Candidate {
	c := Candidate{Params: params}
	cfg, err := build(params)
	if err != nil {
		c.Err = err
		return c
	}

	traj, err := sim.Run(ctx, cfg)
	if err != nil {
		c.Err = err
		return c
	}

	rep, err := metrics.Compute(traj, cfg)
	if err != nil {
		c.Err = err
		return c
	}
	c.Summary = rep.Summary
	return c
}

// MethodGrid returns the search space and config builder for tuning the
// ramp of base's method. The second parameter is the VFD voltage boost or
// the soft-starter initial voltage; an empty second range keeps base's value.
func MethodGrid(base sim.Config, ramps, second []float64) (*GridSearch, func(map[string]float64) (sim.Config, error), error) {
	var name string
	switch base.Method.Kind {
	case control.KindVFD:
		name = ParamBoost
		if len(second) == 0 {
			second = []float64{base.Method.VoltageBoost}
		}
	case control.KindSoftStarter:
		name = ParamInitialVoltage
		if len(second) == 0 {
			second = []float64{base.Method.InitialVoltage}
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrNotTunable, base.Method.Kind.Title())
	}
	if len(ramps) == 0 {
		return nil, nil, ErrEmptyGrid
	}

	build := func(p map[string]float64) (sim.Config, error) {
		cfg := base
		if base.Method.Kind == control.KindVFD {
			cfg.Method = control.VFD(p[ParamRamp], p[ParamBoost])
		} else {
			cfg.Method = control.SoftStarter(p[ParamRamp], p[ParamInitialVoltage])
		}
		if err := cfg.Validate(); err != nil {
			return sim.Config{}, err
		}
		return cfg, nil
	}
	return NewGridSearch([]string{ParamRamp, name}, [][]float64{ramps, second}), build, nil
}

// Tune searches ramp times (and the method's second parameter) for base.
func Tune(ctx context.Context, base sim.Config, ramps, second []float64, objective Objective) (*Result, error) {
	grid, build, err := MethodGrid(base, ramps, second)
	if err != nil {
		return nil, err
	}
	return grid.Search(ctx, build, objective)
}

// Ranked returns the feasible candidates ordered by objective, best first.
func (r *Result) Ranked() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Feasible() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.Objective.Of(out[i].Summary) < r.Objective.Of(out[j].Summary)
	})
	return out
}

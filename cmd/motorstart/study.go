package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/motorstart/internal/automation"
	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/economics"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/optim"
	"github.com/san-kum/motorstart/internal/sim"
	"github.com/san-kum/motorstart/internal/storage"
	"github.com/san-kum/motorstart/internal/viz"
)

func methodArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func title(cfg sim.Config) string {
	return fmt.Sprintf("%s start, %s load", cfg.Method.Kind.Title(), cfg.Load.Title())
}

// persist stores a run and indexes it. A catalog failure only warns since
// the run itself is already on disk.
func persist(ctx context.Context, name string, cfg sim.Config, traj *sim.Trajectory, rep *metrics.Report) (*storage.RunMetadata, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	meta, err := st.Save(name, cfg, traj, rep)
	if err != nil {
		return nil, err
	}

	cat, err := openCatalog()
	if err != nil {
		log.WithError(err).Warn("catalog unavailable, run not indexed")
		return meta, nil
	}
	defer cat.Close()
	if err := cat.Record(ctx, meta); err != nil {
		log.WithError(err).WithField("run", meta.ID).Warn("run not indexed")
	}
	return meta, nil
}

func simulate(ctx context.Context, cfg sim.Config) (*sim.Trajectory, *metrics.Report, error) {
	start := time.Now()
	traj, err := sim.Run(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	rep, err := metrics.Compute(traj, cfg)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"method":   cfg.Method.Kind,
		"load":     cfg.Load,
		"samples":  traj.Len(),
		"accepted": traj.Stats.Accepted,
		"forced":   traj.Stats.Forced,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Debug("start simulated")
	return traj, rep, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	simCfg, err := cfg.ToSim(methodArg(args))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	traj, rep, err := simulate(ctx, simCfg)
	if err != nil {
		return err
	}

	fmt.Println(viz.RenderSummary(title(simCfg), rep.Summary))
	chart, err := viz.Chart(&rep.Series, "speed", width, height)
	if err != nil {
		return err
	}
	fmt.Println(chart)

	if noSave {
		return nil
	}
	meta, err := persist(ctx, runName, simCfg, traj, rep)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", meta.ID)
	return nil
}

// runScenarios simulates every scenario concurrently and computes reports.
func runScenarios(ctx context.Context, scenarios []sim.Scenario) ([]*sim.Trajectory, []*metrics.Report, error) {
	trajs, err := sim.Compare(ctx, scenarios)
	if err != nil {
		return nil, nil, err
	}

	reports := make([]*metrics.Report, len(trajs))
	for i, traj := range trajs {
		reports[i], err = metrics.Compute(traj, scenarios[i].Config)
		if err != nil {
			return nil, nil, fmt.Errorf("scenario %q: %w", scenarios[i].Name, err)
		}
	}
	return trajs, reports, nil
}

func printScenarios(ctx context.Context, scenarios []sim.Scenario, trajs []*sim.Trajectory, reports []*metrics.Report) error {
	names := make([]string, len(scenarios))
	summaries := make([]metrics.Summary, len(reports))
	series := make([]*metrics.Series, len(reports))
	for i, rep := range reports {
		names[i] = scenarios[i].Name
		summaries[i] = rep.Summary
		series[i] = &rep.Series
	}

	fmt.Println(viz.RenderComparison(names, summaries))
	chart, err := viz.CompareChart(names, series, column, width, height)
	if err != nil {
		return err
	}
	fmt.Println(chart)

	if !save {
		return nil
	}
	for i := range scenarios {
		meta, err := persist(ctx, scenarios[i].Name, scenarios[i].Config, trajs[i], reports[i])
		if err != nil {
			return err
		}
		fmt.Printf("%s: run id %s\n", scenarios[i].Name, meta.ID)
	}
	return nil
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.ToSim("")
	if err != nil {
		return err
	}

	var methods []control.Method
	for _, name := range []string{"vfd", "softstart", "dol"} {
		m, err := cfg.Method(name)
		if err != nil {
			return err
		}
		methods = append(methods, m)
	}

	ctx := cmd.Context()
	scenarios := sim.MethodScenarios(base, methods...)
	trajs, reports, err := runScenarios(ctx, scenarios)
	if err != nil {
		return err
	}
	if err := printScenarios(ctx, scenarios, trajs, reports); err != nil {
		return err
	}

	vfd, soft, dol := reports[0].Summary, reports[1].Summary, reports[2].Summary
	fmt.Println(viz.RenderDelta("VFD", "DOL", metrics.Compare(vfd, dol)))
	fmt.Println(viz.RenderDelta("Soft Starter", "DOL", metrics.Compare(soft, dol)))
	fmt.Println(viz.RenderDelta("VFD", "Soft Starter", metrics.Compare(vfd, soft)))
	fmt.Println()

	costs := cfg.Costs()
	assessments := make([]economics.Assessment, 0, len(reports))
	for i, rep := range reports {
		a, err := economics.Analyze(methods[i].Kind, rep.Summary.EnergyKJ, base.Motor.RatedPowerKW(), costs)
		if err != nil {
			return err
		}
		assessments = append(assessments, a)
	}
	fmt.Println(viz.RenderEconomics(assessments))
	return nil
}

func compareLoads(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.ToSim(methodArg(args))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	scenarios := sim.LoadScenarios(base)
	trajs, reports, err := runScenarios(ctx, scenarios)
	if err != nil {
		return err
	}
	fmt.Println(viz.HeaderStyle.Render(base.Method.Kind.Title() + " start by load type"))
	return printScenarios(ctx, scenarios, trajs, reports)
}

func tuneRamp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.ToSim(methodArg(args))
	if err != nil {
		return err
	}
	obj, err := optim.ParseObjective(objective)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"method":    base.Method.Kind,
		"ramps":     ramps,
		"second":    seconds,
		"objective": obj,
	}).Info("searching ramp grid")

	res, err := optim.Tune(cmd.Context(), base, ramps, seconds, obj)
	if res != nil {
		fmt.Println(viz.RenderCandidates(res))
	}
	if err != nil {
		return err
	}

	best := res.Best
	fmt.Println(viz.Row("Best ramp", fmt.Sprintf("%.1f s", best.Params[optim.ParamRamp])))
	for _, name := range []string{optim.ParamBoost, optim.ParamInitialVoltage} {
		if v, ok := best.Params[name]; ok {
			fmt.Println(viz.Row("Best "+name, fmt.Sprintf("%.2f", v)))
		}
	}
	fmt.Println(viz.RenderSummary(title(base), best.Summary))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	outcomes, err := automation.RunScenario(ctx, scenario, base)
	if err != nil {
		return err
	}

	scenarios := make([]sim.Scenario, len(outcomes))
	trajs := make([]*sim.Trajectory, len(outcomes))
	reports := make([]*metrics.Report, len(outcomes))
	for i, o := range outcomes {
		scenarios[i] = sim.Scenario{Name: o.Name, Config: o.Config}
		trajs[i] = o.Trajectory
		reports[i] = o.Report
	}

	header := scenario.Name
	if scenario.Description != "" {
		header += ": " + scenario.Description
	}
	fmt.Println(viz.HeaderStyle.Render(header))
	return printScenarios(ctx, scenarios, trajs, reports)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.ToSim(methodArg(args))
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, base)
	if len(results) > 0 {
		fmt.Println(viz.RenderSweep(sweepParam, results))
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.ToSim(methodArg(args))
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		NumTrials:     trials,
		Seed:          seed,
		InertiaSpread: inertiaSpread,
		LoadSpread:    loadSpread,
	}
	log.WithFields(log.Fields{
		"trials": trials,
		"seed":   seed,
	}).Info("running monte carlo")

	results, err := automation.RunMonteCarlo(cmd.Context(), mc, base)
	if err != nil {
		return err
	}
	fmt.Println(viz.RenderMonteCarlo(automation.MonteCarloStats(results)))
	return nil
}

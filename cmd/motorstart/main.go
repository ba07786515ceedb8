package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/motorstart/internal/automation"
	"github.com/san-kum/motorstart/internal/catalog"
	"github.com/san-kum/motorstart/internal/config"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/sim"
	"github.com/san-kum/motorstart/internal/storage"
	"github.com/san-kum/motorstart/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	theme      string

	// study parameters, applied over the config only when set
	rampTime       float64
	boost          float64
	initialVoltage float64
	loadType       string
	powerHP        float64
	samples        int
	settle         float64
	integrator     string

	runName string
	noSave  bool
	save    bool

	column    string
	width     int
	height    int
	outPath   string
	svgOut    bool
	objective string
	ramps     []float64
	seconds   []float64

	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepSteps    int
	trials        int
	seed          int64
	inertiaSpread float64
	loadSpread    float64

	methodFilter string
	loadFilter   string
	limit        int
	syncCatalog  bool
	showBest     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "motorstart",
		Short: "induction motor startup simulator",
		Long:  "Compare VFD, soft starter and direct-on-line starts of a three-phase induction motor.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			viz.SetTheme(theme)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".motorstart", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [method]",
		Short: "simulate one start (vfd, softstart, dol)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStart,
	}
	addStudyFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().IntVar(&width, "width", 80, "chart width")
	runCmd.Flags().IntVar(&height, "height", 12, "chart height")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare VFD, soft starter and DOL on the same motor and load",
		Args:  cobra.NoArgs,
		RunE:  compareMethods,
	}
	addStudyFlags(compareCmd)
	compareCmd.Flags().BoolVar(&save, "save", false, "store every run")
	compareCmd.Flags().StringVar(&column, "column", "current", "column to chart")
	compareCmd.Flags().IntVar(&width, "width", 80, "chart width")
	compareCmd.Flags().IntVar(&height, "height", 12, "chart height")

	loadsCmd := &cobra.Command{
		Use:   "loads [method]",
		Short: "run one method against every load type",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareLoads,
	}
	addStudyFlags(loadsCmd)
	loadsCmd.Flags().BoolVar(&save, "save", false, "store every run")
	loadsCmd.Flags().StringVar(&column, "column", "speed", "column to chart")
	loadsCmd.Flags().IntVar(&width, "width", 80, "chart width")
	loadsCmd.Flags().IntVar(&height, "height", 12, "chart height")

	tuneCmd := &cobra.Command{
		Use:   "tune [method]",
		Short: "grid-search the ramp for the lowest peak current or energy",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneRamp,
	}
	addStudyFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&objective, "objective", "peak", "quantity to minimise (peak, energy, time)")
	tuneCmd.Flags().Float64SliceVar(&ramps, "ramps", []float64{10, 15, 20, 25, 30, 40}, "ramp times to try (s)")
	tuneCmd.Flags().Float64SliceVar(&seconds, "second", nil, "VFD boosts or soft-starter initial voltages to try")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run every study of a YAML batch file concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&save, "save", false, "store every run")
	batchCmd.Flags().StringVar(&column, "column", "speed", "column to chart")
	batchCmd.Flags().IntVar(&width, "width", 80, "chart width")
	batchCmd.Flags().IntVar(&height, "height", 12, "chart height")

	sweepCmd := &cobra.Command{
		Use:   "sweep [method]",
		Short: "vary one parameter over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addStudyFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "ramp", fmt.Sprintf("parameter to vary %v", automation.SweepParams()))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 10, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 40, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [method]",
		Short: "perturb inertia and load and collect start statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addStudyFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	monteCarloCmd.Flags().Float64Var(&inertiaSpread, "inertia-spread", 0.2, "relative std dev of inertia")
	monteCarloCmd.Flags().Float64Var(&loadSpread, "load-spread", 0.1, "relative std dev of load factor")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run's summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]...",
		Short: "plot one column of one or more runs in the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "speed", fmt.Sprintf("column to plot %v", viz.ColumnNames()))
	plotCmd.Flags().IntVar(&width, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&height, "height", 15, "chart height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.csv)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]...",
		Short: "write a PNG chart grid of a run, or overlay a column of several runs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.png)")
	chartCmd.Flags().StringVar(&column, "column", "current", "column to overlay when comparing runs")
	chartCmd.Flags().BoolVar(&svgOut, "svg", false, "write the speed trace as SVG instead")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "play a stored run back in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "query the run catalog",
		RunE:  showHistory,
	}
	historyCmd.Flags().StringVar(&methodFilter, "method", "", "only runs of this method")
	historyCmd.Flags().StringVar(&loadFilter, "load", "", "only runs with this load")
	historyCmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	historyCmd.Flags().BoolVar(&syncCatalog, "sync", false, "index stored runs missing from the catalog first")
	historyCmd.Flags().BoolVar(&showBest, "best", false, "show the lowest-current run that reached speed")

	rootCmd.AddCommand(runCmd, compareCmd, loadsCmd, tuneCmd, batchCmd, sweepCmd, monteCarloCmd, listCmd, showCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, chartCmd, replayCmd, deleteCmd, presetsCmd, historyCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}

func addStudyFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&rampTime, "ramp", config.DefaultVFDRamp, "ramp time (s)")
	cmd.Flags().Float64Var(&boost, "boost", config.DefaultBoost, "VFD low-frequency voltage boost (fraction)")
	cmd.Flags().Float64Var(&initialVoltage, "initial-voltage", config.DefaultInitialVoltage, "soft starter initial voltage (fraction)")
	cmd.Flags().StringVar(&loadType, "load", load.ConstantTorque.String(), "load type (constant_torque, fan_pump, constant_power)")
	cmd.Flags().Float64Var(&powerHP, "hp", config.DefaultPowerHP, "motor rated power (HP)")
	cmd.Flags().IntVar(&samples, "samples", sim.DefaultSamples, "output samples")
	cmd.Flags().Float64Var(&settle, "settle", 0, "seconds simulated after the ramp")
	cmd.Flags().StringVar(&integrator, "integrator", sim.DefaultIntegrator, "integrator (euler, rk4, rk45)")
}

// loadConfig layers preset, config file and changed flags over the
// defaults, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	flags := cmd.Flags()
	if flags.Changed("ramp") {
		cfg.Start.VFD.RampTime = rampTime
		cfg.Start.SoftStart.RampTime = rampTime
	}
	if flags.Changed("boost") {
		cfg.Start.VFD.Boost = boost
	}
	if flags.Changed("initial-voltage") {
		cfg.Start.SoftStart.InitialVoltage = initialVoltage
	}
	if flags.Changed("load") {
		cfg.Load = loadType
	}
	if flags.Changed("hp") {
		cfg.Motor.PowerHP = powerHP
		cfg.Motor.PowerKW = 0
	}
	if flags.Changed("samples") {
		cfg.Solver.Samples = samples
	}
	if flags.Changed("settle") {
		cfg.Start.Settle = settle
	}
	if flags.Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}

	log.WithFields(log.Fields{
		"preset": preset,
		"config": configFile,
		"method": cfg.Start.Method,
		"load":   cfg.Load,
	}).Debug("configuration resolved")
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func openCatalog() (*catalog.Catalog, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return catalog.Open(filepath.Join(dataDir, "catalog.db"))
}

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/motorstart/internal/catalog"
	"github.com/san-kum/motorstart/internal/config"
	"github.com/san-kum/motorstart/internal/export"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/storage"
	"github.com/san-kum/motorstart/internal/viz"
)

func loadRun(id string) (*storage.RunMetadata, *metrics.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	series, err := st.LoadSeries(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, series, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	fmt.Println(viz.RenderRuns(runs))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Row("Run", meta.ID))
	if meta.Name != "" {
		fmt.Println(viz.Row("Name", meta.Name))
	}
	fmt.Println(viz.Row("Saved", meta.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Println(viz.Row("Motor", fmt.Sprintf("%.0f kW, %.0f V, %.0f Hz, %d poles",
		meta.Motor.PowerKW, meta.Motor.Voltage, meta.Motor.Frequency, meta.Motor.Poles)))
	fmt.Println(viz.Row("Inertia", fmt.Sprintf("%.1f kg·m²", meta.Mechanics.Inertia)))
	fmt.Println(viz.Row("Solver", fmt.Sprintf("%s, %d accepted, %d rejected, %d forced steps",
		meta.Integrator, meta.Stats.Accepted, meta.Stats.Rejected, meta.Stats.Forced)))
	fmt.Println(viz.RenderSummary(fmt.Sprintf("%s start, %s load", meta.Method, meta.Load), meta.Summary))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		_, series, err := loadRun(args[0])
		if err != nil {
			return err
		}
		chart, err := viz.Chart(series, column, width, height)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		return nil
	}

	all := make([]*metrics.Series, 0, len(args))
	for _, id := range args {
		_, series, err := loadRun(id)
		if err != nil {
			return err
		}
		all = append(all, series)
	}
	chart, err := viz.CompareChart(args, all, column, width, height)
	if err != nil {
		return err
	}
	fmt.Println(chart)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = meta.ID + ".csv"
	}
	if path == "-" {
		return export.WriteCSV(os.Stdout, meta, series)
	}
	if err := export.ExportCSV(path, meta, series); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", series.Len(), path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outPath == "" || outPath == "-" {
		return export.ExportJSONStdout(meta, series)
	}
	if err := export.ExportJSON(outPath, meta, series); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		all := make([]*metrics.Series, 0, len(args))
		for _, id := range args {
			_, series, err := loadRun(id)
			if err != nil {
				return err
			}
			all = append(all, series)
		}
		path := outPath
		if path == "" {
			path = "compare_" + column + ".png"
		}
		if err := export.ExportComparison(path, args, all, column); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}

	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := outPath
	if svgOut {
		if path == "" {
			path = meta.ID + ".svg"
		}
		if err := os.WriteFile(path, []byte(export.SpeedSVG(series, 800, 400)), 0644); err != nil {
			return err
		}
	} else {
		if path == "" {
			path = meta.ID + ".png"
		}
		if err := export.ExportChartGrid(path, series); err != nil {
			return err
		}
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	cfg, err := meta.Config()
	if err != nil {
		return err
	}
	return viz.RunReplay(fmt.Sprintf("%s %s", meta.Method, meta.ID), series, cfg.Motor.FullLoadCurrent())
}

func deleteRun(cmd *cobra.Command, args []string) error {
	if err := storage.New(dataDir).Delete(args[0]); err != nil {
		return err
	}

	cat, err := openCatalog()
	if err != nil {
		log.WithError(err).Warn("catalog unavailable")
	} else {
		defer cat.Close()
		if err := cat.Remove(cmd.Context(), args[0]); err != nil {
			log.WithError(err).WithField("run", args[0]).Warn("catalog entry not removed")
		}
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Printf("  %-16s %-10s %-16s %.0f HP\n", name, p.Start.Method, p.Load, p.Motor.PowerHP)
	}
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	if syncCatalog {
		n, err := cat.Sync(ctx, storage.New(dataDir))
		if err != nil {
			return err
		}
		log.WithField("added", n).Info("catalog synced")
	}

	if showBest {
		if methodFilter == "" {
			return fmt.Errorf("--best needs --method")
		}
		best, err := cat.Best(ctx, methodFilter)
		if err != nil {
			return err
		}
		if best == nil {
			fmt.Printf("no %s run reached speed\n", methodFilter)
			return nil
		}
		fmt.Println(viz.RenderHistory([]catalog.Entry{*best}))
		return nil
	}

	entries, err := cat.Query(ctx, catalog.Filter{
		Method: methodFilter,
		Load:   loadFilter,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	fmt.Println(viz.RenderHistory(entries))
	return nil
}

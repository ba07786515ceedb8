package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/motorstart/internal/automation"
	"github.com/san-kum/motorstart/internal/catalog"
	"github.com/san-kum/motorstart/internal/economics"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/optim"
	"github.com/san-kum/motorstart/internal/storage"
)

func timeToSpeed(t float64) string {
	if t < 0 {
		return "never"
	}
	return fmt.Sprintf("%.2f s", t)
}

// RenderSummary is the single-run panel printed after `run`.
func RenderSummary(title string, s metrics.Summary) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(title) + "\n")
	b.WriteString(Row("Peak current", fmt.Sprintf("%.0f A (%.2f× FLA) at %.2f s", s.PeakCurrent, s.PeakCurrentRatio, s.PeakCurrentTime)) + "\n")
	b.WriteString(Row("Peak torque", fmt.Sprintf("%.0f N·m", s.PeakTorque)) + "\n")
	b.WriteString(Row("Final speed", fmt.Sprintf("%.1f RPM (%.2f rad/s)", s.FinalSpeedRPM, s.FinalSpeed)) + "\n")
	b.WriteString(Row("Final slip", fmt.Sprintf("%.2f %%", s.FinalSlip)) + "\n")
	b.WriteString(Row("Startup energy", fmt.Sprintf("%.1f kJ (%.3f kWh)", s.EnergyKJ, s.EnergyKWh)) + "\n")
	b.WriteString(Row("Avg efficiency", fmt.Sprintf("%.1f %%", s.AverageEfficiency)) + "\n")
	b.WriteString(Row("Time to 95% sync", timeToSpeed(s.TimeToSpeed)))
	if s.Stalled {
		b.WriteString("\n" + StatusAlarm.Render("STALLED: final speed below half of synchronous"))
	}
	return Panel.Render(b.String())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(CurrentTheme.Muted)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Secondary).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// RenderComparison tabulates summaries side by side, one row per scenario.
func RenderComparison(names []string, summaries []metrics.Summary) string {
	t := newTable("Scenario", "Peak A", "×FLA", "Energy kJ", "Final RPM", "Avg eff %", "t95")
	for i, s := range summaries {
		name := names[i]
		if s.Stalled {
			name += " (stalled)"
		}
		t.Row(
			name,
			fmt.Sprintf("%.0f", s.PeakCurrent),
			fmt.Sprintf("%.2f", s.PeakCurrentRatio),
			fmt.Sprintf("%.1f", s.EnergyKJ),
			fmt.Sprintf("%.1f", s.FinalSpeedRPM),
			fmt.Sprintf("%.1f", s.AverageEfficiency),
			timeToSpeed(s.TimeToSpeed),
		)
	}
	return t.Render()
}

// RenderDelta describes a candidate against a baseline in one line.
func RenderDelta(candidate, baseline string, c metrics.Comparison) string {
	return fmt.Sprintf("%s vs %s: %.1f%% lower peak current, %+.1f kJ startup energy",
		candidate, baseline, c.CurrentReduction, c.EnergyDelta)
}

func years(y float64) string {
	if math.IsInf(y, 1) {
		return "never"
	}
	return fmt.Sprintf("%.1f years", y)
}

// RenderEconomics tabulates yearly costs and the payback of the first
// assessment's premium over the second.
func RenderEconomics(assessments []economics.Assessment) string {
	t := newTable("Method", "Installed $", "kWh/start", "Starts $/yr", "Running loss $/yr", "Total $/yr")
	for _, a := range assessments {
		t.Row(
			a.Method.Title(),
			fmt.Sprintf("%.0f", a.Installed),
			fmt.Sprintf("%.3f", a.EnergyPerStartKWh),
			fmt.Sprintf("%.0f", a.StartupCost),
			fmt.Sprintf("%.0f", a.RunningLoss),
			fmt.Sprintf("%.0f", a.AnnualCost),
		)
	}

	out := t.Render()
	if len(assessments) >= 2 {
		p := economics.Payback(assessments[0], assessments[1])
		out += "\n" + Row(assessments[0].Method.Title()+" payback", years(p))
	}
	return out
}

func RenderRuns(runs []storage.RunMetadata) string {
	t := newTable("ID", "Name", "Method", "Load", "Ramp s", "×FLA", "Energy kJ", "Saved")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.Name,
			r.Method,
			r.Load,
			fmt.Sprintf("%.1f", r.RampTime),
			fmt.Sprintf("%.2f", r.Summary.PeakCurrentRatio),
			fmt.Sprintf("%.1f", r.Summary.EnergyKJ),
			r.Timestamp.Format("2006-01-02 15:04"),
		)
	}
	return t.Render()
}

func RenderHistory(entries []catalog.Entry) string {
	t := newTable("ID", "Method", "Load", "Ramp s", "kW", "×FLA", "Energy kJ", "RPM", "Stalled")
	for _, e := range entries {
		stalled := ""
		if e.Stalled {
			stalled = "yes"
		}
		t.Row(
			e.ID,
			e.Method,
			e.Load,
			fmt.Sprintf("%.1f", e.RampTime),
			fmt.Sprintf("%.0f", e.PowerKW),
			fmt.Sprintf("%.2f", e.PeakRatio),
			fmt.Sprintf("%.1f", e.EnergyKJ),
			fmt.Sprintf("%.0f", e.FinalRPM),
			stalled,
		)
	}
	return t.Render()
}

// RenderCandidates lists every evaluated grid point in search order,
// marking the winner.
func RenderCandidates(r *optim.Result) string {
	t := newTable("Ramp s", "Second", "×FLA", "Energy kJ", "t95", "Status")
	for _, c := range r.Candidates {
		status := "ok"
		switch {
		case c.Err != nil:
			status = "error"
		case !c.Feasible():
			status = "not up to speed"
		case c.Params[optim.ParamRamp] == r.Best.Params[optim.ParamRamp] && secondParam(c) == secondParam(r.Best):
			status = "best"
		}
		t.Row(
			fmt.Sprintf("%.1f", c.Params[optim.ParamRamp]),
			fmt.Sprintf("%.2f", secondParam(c)),
			fmt.Sprintf("%.2f", c.Summary.PeakCurrentRatio),
			fmt.Sprintf("%.1f", c.Summary.EnergyKJ),
			timeToSpeed(c.Summary.TimeToSpeed),
			status,
		)
	}
	return t.Render()
}

func secondParam(c optim.Candidate) float64 {
	if v, ok := c.Params[optim.ParamBoost]; ok {
		return v
	}
	return c.Params[optim.ParamInitialVoltage]
}

func RenderSweep(param string, results []automation.SweepResult) string {
	t := newTable(param, "Peak A", "×FLA", "Energy kJ", "Final RPM", "t95")
	for _, r := range results {
		t.Row(
			fmt.Sprintf("%.3g", r.ParamValue),
			fmt.Sprintf("%.0f", r.Summary.PeakCurrent),
			fmt.Sprintf("%.2f", r.Summary.PeakCurrentRatio),
			fmt.Sprintf("%.1f", r.Summary.EnergyKJ),
			fmt.Sprintf("%.1f", r.Summary.FinalSpeedRPM),
			timeToSpeed(r.Summary.TimeToSpeed),
		)
	}
	return t.Render()
}

func RenderMonteCarlo(s automation.MonteCarloSummary) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Monte Carlo") + "\n")
	b.WriteString(Row("Trials", fmt.Sprintf("%d (%d failed)", s.Trials, s.Failed)) + "\n")
	b.WriteString(Row("Reached speed", fmt.Sprintf("%d", s.ReachedSpeed)) + "\n")
	b.WriteString(Row("Peak ×FLA", fmt.Sprintf("%.2f ± %.2f, p95 %.2f", s.PeakMean, s.PeakStdDev, s.PeakP95)) + "\n")
	b.WriteString(Row("Mean energy", fmt.Sprintf("%.1f kJ", s.EnergyMean)) + "\n")
	b.WriteString(Row("Mean t95", fmt.Sprintf("%.2f s", s.TimeMean)))
	if s.ReachedSpeed < s.Trials-s.Failed {
		b.WriteString("\n" + StatusAlarm.Render(fmt.Sprintf("%d trials never reached speed", s.Trials-s.Failed-s.ReachedSpeed)))
	}
	return Panel.Render(b.String())
}

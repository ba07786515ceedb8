package viz

import (
	"errors"
	"fmt"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/motorstart/internal/metrics"
)

var ErrUnknownColumn = errors.New("viz: unknown series column")

// Column names a plottable series and its unit.
type Column struct {
	Name  string
	Label string
	Get   func(*metrics.Series) []float64
}

var columns = map[string]Column{
	"speed":      {"speed", "speed (RPM)", func(s *metrics.Series) []float64 { return s.SpeedRPM }},
	"current":    {"current", "current (A)", func(s *metrics.Series) []float64 { return s.Current }},
	"torque":     {"torque", "torque (N·m)", func(s *metrics.Series) []float64 { return s.Torque }},
	"load":       {"load", "load torque (N·m)", func(s *metrics.Series) []float64 { return s.LoadTorque }},
	"slip":       {"slip", "slip (%)", func(s *metrics.Series) []float64 { return s.Slip }},
	"frequency":  {"frequency", "frequency (Hz)", func(s *metrics.Series) []float64 { return s.Frequency }},
	"voltage":    {"voltage", "voltage (V)", func(s *metrics.Series) []float64 { return s.Voltage }},
	"power":      {"power", "input power (kW)", func(s *metrics.Series) []float64 { return s.PowerIn }},
	"efficiency": {"efficiency", "efficiency (%)", func(s *metrics.Series) []float64 { return s.Efficiency }},
}

func ColumnNames() []string {
	names := make([]string, 0, len(columns))
	for n := range columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func LookupColumn(name string) (Column, error) {
	c, ok := columns[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, name, ColumnNames())
	}
	return c, nil
}

// Chart plots one column of a run.
func Chart(s *metrics.Series, column string, width, height int) (string, error) {
	c, err := LookupColumn(column)
	if err != nil {
		return "", err
	}
	data := c.Get(s)
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty series", ErrUnknownColumn)
	}

	caption := fmt.Sprintf("%s over %.1f s", c.Label, s.Time[len(s.Time)-1])
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// CompareChart overlays one column of several runs. Runs of different
// length are resampled onto the chart width by asciigraph.
func CompareChart(names []string, series []*metrics.Series, column string, width, height int) (string, error) {
	c, err := LookupColumn(column)
	if err != nil {
		return "", err
	}

	data := make([][]float64, 0, len(series))
	for _, s := range series {
		data = append(data, c.Get(s))
	}

	colors := CurrentTheme.Series
	if len(colors) > len(data) {
		colors = colors[:len(data)]
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(names...),
		asciigraph.Caption(c.Label),
	), nil
}

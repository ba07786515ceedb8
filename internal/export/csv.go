package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/storage"
)

// CSVHeader is the per-sample column order of an exported run.
var CSVHeader = []string{
	"Time (s)", "Frequency (Hz)", "Voltage (V)", "Speed (RPM)", "Slip (%)",
	"Motor Torque (Nm)", "Load Torque (Nm)", "Current (A)",
	"Power Out (kW)", "Power In (kW)", "Efficiency (%)",
}

func metadataRows(m *storage.RunMetadata) [][]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	rows := [][]string{
		{"# Run", m.ID},
		{"# Method", m.Method},
		{"# Load", m.Load},
		{"# Motor Power (kW)", f(m.Motor.PowerKW)},
		{"# Voltage (V)", f(m.Motor.Voltage)},
		{"# Frequency (Hz)", f(m.Motor.Frequency)},
		{"# Poles", strconv.Itoa(m.Motor.Poles)},
	}
	if m.RampTime > 0 {
		rows = append(rows, []string{"# Ramp Time (s)", f(m.RampTime)})
	}
	if m.VoltageBoost > 0 {
		rows = append(rows, []string{"# Voltage Boost", f(m.VoltageBoost)})
	}
	if m.InitialVoltage > 0 {
		rows = append(rows, []string{"# Initial Voltage", f(m.InitialVoltage)})
	}
	return append(rows,
		[]string{"# Peak Current (A)", f(m.Summary.PeakCurrent)},
		[]string{"# Startup Energy (kJ)", f(m.Summary.EnergyKJ)},
		[]string{"# Final Speed (RPM)", f(m.Summary.FinalSpeedRPM)},
	)
}

// WriteCSV writes the run's metadata as '#'-prefixed rows, then the header
// and one row per sample in CSVHeader order. Readers that set
// csv.Reader.Comment to '#' see only the table.
func WriteCSV(w io.Writer, m *storage.RunMetadata, s *metrics.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(metadataRows(m)); err != nil {
		return err
	}
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	for i := 0; i < s.Len(); i++ {
		p := s.At(i)
		vals := []float64{
			p.Time, p.Frequency, p.Voltage, p.SpeedRPM, p.Slip,
			p.Torque, p.LoadTorque, p.Current,
			p.PowerOut, p.PowerIn, p.Efficiency,
		}
		row := make([]string, len(vals))
		for j, v := range vals {
			row[j] = strconv.FormatFloat(v, 'f', 4, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, m *storage.RunMetadata, s *metrics.Series) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, m, s) })
}

package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/storage"
)

type ExportData struct {
	Run        *storage.RunMetadata `json:"run"`
	Samples    int                  `json:"samples"`
	Time       []float64            `json:"time"`
	Frequency  []float64            `json:"frequency"`
	Voltage    []float64            `json:"voltage"`
	SpeedRPM   []float64            `json:"speed_rpm"`
	Slip       []float64            `json:"slip"`
	Torque     []float64            `json:"torque"`
	LoadTorque []float64            `json:"load_torque"`
	Current    []float64            `json:"current"`
	PowerIn    []float64            `json:"power_in"`
	PowerOut   []float64            `json:"power_out"`
	Efficiency []float64            `json:"efficiency"`
}

func newExportData(m *storage.RunMetadata, s *metrics.Series) ExportData {
	return ExportData{
		Run:        m,
		Samples:    s.Len(),
		Time:       s.Time,
		Frequency:  s.Frequency,
		Voltage:    s.Voltage,
		SpeedRPM:   s.SpeedRPM,
		Slip:       s.Slip,
		Torque:     s.Torque,
		LoadTorque: s.LoadTorque,
		Current:    s.Current,
		PowerIn:    s.PowerIn,
		PowerOut:   s.PowerOut,
		Efficiency: s.Efficiency,
	}
}

func WriteJSON(w io.Writer, m *storage.RunMetadata, s *metrics.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newExportData(m, s))
}

func ExportJSON(path string, m *storage.RunMetadata, s *metrics.Series) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, m, s)
}

func ExportJSONStdout(m *storage.RunMetadata, s *metrics.Series) error {
	return WriteJSON(os.Stdout, m, s)
}

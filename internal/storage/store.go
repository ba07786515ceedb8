package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/motor"
	"github.com/san-kum/motorstart/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

// SeriesHeader is the column order of series.csv.
var SeriesHeader = []string{
	"time_s", "frequency_hz", "voltage_v", "speed_rad_s", "speed_rpm", "slip_pct",
	"torque_nm", "load_torque_nm", "current_a", "power_in_kw", "power_out_kw", "efficiency_pct",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type MotorInfo struct {
	PowerKW     float64 `json:"power_kw"`
	Voltage     float64 `json:"voltage"`
	Frequency   float64 `json:"frequency"`
	Poles       int     `json:"poles"`
	Efficiency  float64 `json:"efficiency"`
	PowerFactor float64 `json:"power_factor"`
}

type RunMetadata struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Timestamp      time.Time       `json:"timestamp"`
	Method         string          `json:"method"`
	RampTime       float64         `json:"ramp_time,omitempty"`
	VoltageBoost   float64         `json:"voltage_boost,omitempty"`
	InitialVoltage float64         `json:"initial_voltage,omitempty"`
	Load           string          `json:"load"`
	Samples        int             `json:"samples"`
	Horizon        float64         `json:"horizon"`
	Integrator     string          `json:"integrator"`
	Motor          MotorInfo       `json:"motor"`
	Mechanics      motor.Mechanics `json:"mechanics"`
	Stats          dynamo.Stats    `json:"stats"`
	Summary        metrics.Summary `json:"summary"`
}

// Config rebuilds the engine configuration the run was made with, using
// default solver settings.
func (m *RunMetadata) Config() (sim.Config, error) {
	mot, err := motor.New(m.Motor.PowerKW, m.Motor.Voltage, m.Motor.Frequency, m.Motor.Poles, m.Motor.Efficiency, m.Motor.PowerFactor)
	if err != nil {
		return sim.Config{}, err
	}
	kind, err := control.ParseKind(m.Method)
	if err != nil {
		return sim.Config{}, err
	}
	lt, err := load.Parse(m.Load)
	if err != nil {
		return sim.Config{}, err
	}

	method := control.Method{Kind: kind, RampTime: m.RampTime, VoltageBoost: m.VoltageBoost, InitialVoltage: m.InitialVoltage}
	cfg := sim.NewConfig(mot, m.Mechanics, method, lt)
	cfg.Samples = m.Samples
	cfg.Settle = m.Horizon - method.Horizon()
	if cfg.Settle < 0 {
		cfg.Settle = 0
	}
	if m.Integrator != "" {
		cfg.Integrator = m.Integrator
	}
	return cfg, nil
}

func newMetadata(name string, cfg sim.Config, traj *sim.Trajectory, rep *metrics.Report) RunMetadata {
	mot := cfg.Motor
	return RunMetadata{
		ID:             fmt.Sprintf("%s_%s", cfg.Method.Kind, uuid.NewString()[:8]),
		Name:           name,
		Timestamp:      time.Now(),
		Method:         cfg.Method.Kind.String(),
		RampTime:       cfg.Method.RampTime,
		VoltageBoost:   cfg.Method.VoltageBoost,
		InitialVoltage: cfg.Method.InitialVoltage,
		Load:           cfg.Load.String(),
		Samples:        cfg.Samples,
		Horizon:        cfg.Horizon(),
		Integrator:     cfg.Integrator,
		Motor: MotorInfo{
			PowerKW:     mot.RatedPowerKW(),
			Voltage:     mot.Voltage(),
			Frequency:   mot.BaseFrequency(),
			Poles:       mot.Poles(),
			Efficiency:  mot.Efficiency(),
			PowerFactor: mot.PowerFactor(),
		},
		Mechanics: cfg.Mechanics,
		Stats:     traj.Stats,
		Summary:   rep.Summary,
	}
}

// Save writes metadata.json and series.csv under a fresh run directory and
// returns the metadata.
func (s *Store) Save(name string, cfg sim.Config, traj *sim.Trajectory, rep *metrics.Report) (*RunMetadata, error) {
	meta := newMetadata(name, cfg, traj, rep)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return nil, err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), &rep.Series); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"run":    meta.ID,
		"method": meta.Method,
		"load":   meta.Load,
		"dir":    runDir,
	}).Debug("run saved")
	return &meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, series *metrics.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(SeriesHeader); err != nil {
		return err
	}
	for i := 0; i < series.Len(); i++ {
		if err := w.Write(SeriesRow(series.At(i))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SeriesRow formats a sample in SeriesHeader order.
func SeriesRow(p metrics.Sample) []string {
	vals := []float64{
		p.Time, p.Frequency, p.Voltage, p.Speed, p.SpeedRPM, p.Slip,
		p.Torque, p.LoadTorque, p.Current, p.PowerIn, p.PowerOut, p.Efficiency,
	}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return row
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			log.WithError(err).WithField("dir", entry.Name()).Debug("skipping unreadable run")
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads series.csv back into columns.
func (s *Store) LoadSeries(runID string) (*metrics.Series, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(SeriesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read series %s: missing header", runID)
	}

	rows := records[1:]
	cols := make([][]float64, len(SeriesHeader))
	for j := range cols {
		cols[j] = make([]float64, len(rows))
	}
	for i, rec := range rows {
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("read series %s: row %d column %s: %w", runID, i+1, SeriesHeader[j], err)
			}
			cols[j][i] = v
		}
	}

	return &metrics.Series{
		Time:       cols[0],
		Frequency:  cols[1],
		Voltage:    cols[2],
		Speed:      cols[3],
		SpeedRPM:   cols[4],
		Slip:       cols[5],
		Torque:     cols[6],
		LoadTorque: cols[7],
		Current:    cols[8],
		PowerIn:    cols[9],
		PowerOut:   cols[10],
		Efficiency: cols[11],
	}, nil
}

func (s *Store) Delete(runID string) error {
	runDir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return os.RemoveAll(runDir)
}

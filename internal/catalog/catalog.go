// Package catalog indexes run summaries in SQLite so past studies can be
// filtered and ranked without reading every run directory.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/san-kum/motorstart/internal/storage"
)

const createRunsSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    name TEXT,
    created_at TEXT NOT NULL,
    method TEXT NOT NULL,
    load TEXT NOT NULL,
    ramp_time REAL,
    power_kw REAL NOT NULL,
    peak_current REAL NOT NULL,
    peak_ratio REAL NOT NULL,
    energy_kj REAL NOT NULL,
    final_rpm REAL NOT NULL,
    time_to_speed REAL NOT NULL,
    stalled INTEGER NOT NULL
);`

const timeLayout = "2006-01-02 15:04:05.000"

// Entry is one indexed run.
type Entry struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	Method      string
	Load        string
	RampTime    float64
	PowerKW     float64
	PeakCurrent float64
	PeakRatio   float64
	EnergyKJ    float64
	FinalRPM    float64
	TimeToSpeed float64
	Stalled     bool
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	Method string
	Load   string
	Limit  int
}

type Catalog struct {
	db *sql.DB
}

// Open creates or opens the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(createRunsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record indexes a run, replacing any entry with the same ID.
func (c *Catalog) Record(ctx context.Context, meta *storage.RunMetadata) error {
	s := meta.Summary
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(id, name, created_at, method, load, ramp_time, power_kw,
			peak_current, peak_ratio, energy_kj, final_rpm, time_to_speed, stalled)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Timestamp.UTC().Format(timeLayout), meta.Method, meta.Load,
		meta.RampTime, meta.Motor.PowerKW, s.PeakCurrent, s.PeakCurrentRatio, s.EnergyKJ,
		s.FinalSpeedRPM, s.TimeToSpeed, s.Stalled,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", meta.ID, err)
	}

	log.WithFields(log.Fields{
		"run":    meta.ID,
		"method": meta.Method,
	}).Debug("run indexed")
	return nil
}

// Query returns matching runs, newest first.
func (c *Catalog) Query(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Method != "" {
		where = append(where, "method = ?")
		args = append(args, f.Method)
	}
	if f.Load != "" {
		where = append(where, "load = ?")
		args = append(args, f.Load)
	}

	q := `SELECT id, name, created_at, method, load, ramp_time, power_kw, peak_current,
		peak_ratio, energy_kj, final_rpm, time_to_speed, stalled FROM runs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return c.query(ctx, q, args...)
}

// Best returns the non-stalled run with the lowest peak current ratio for a
// method, or nil when none is indexed.
func (c *Catalog) Best(ctx context.Context, method string) (*Entry, error) {
	entries, err := c.query(ctx,
		`SELECT id, name, created_at, method, load, ramp_time, power_kw, peak_current,
		peak_ratio, energy_kj, final_rpm, time_to_speed, stalled FROM runs
		WHERE method = ? AND stalled = 0 ORDER BY peak_ratio ASC LIMIT 1`, method)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (c *Catalog) Remove(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	return err
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.Name, &created, &e.Method, &e.Load, &e.RampTime, &e.PowerKW,
			&e.PeakCurrent, &e.PeakRatio, &e.EnergyKJ, &e.FinalRPM, &e.TimeToSpeed, &e.Stalled); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		e.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("catalog row %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sync indexes every run in the store that the catalog does not know yet
// and returns how many were added.
func (c *Catalog) Sync(ctx context.Context, st *storage.Store) (int, error) {
	runs, err := st.List()
	if err != nil {
		return 0, err
	}

	added := 0
	for i := range runs {
		var exists int
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runs[i].ID).Scan(&exists); err != nil {
			return added, err
		}
		if exists > 0 {
			continue
		}
		if err := c.Record(ctx, &runs[i]); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

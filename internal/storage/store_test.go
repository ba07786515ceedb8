package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/motor"
	"github.com/san-kum/motorstart/internal/sim"
)

func dolRun(t *testing.T) (sim.Config, *sim.Trajectory, *metrics.Report) {
	t.Helper()
	m, err := motor.New(motor.HPToKW(800), 460, 60, 4, 0.95, 0.88)
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.NewConfig(m, motor.Mechanics{Inertia: 150, Damping: 2, LoadFactor: 0.75}, control.DOL(), load.FanPump)
	cfg.Samples = 50

	traj, err := sim.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := metrics.Compute(traj, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return cfg, traj, rep
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, traj, rep := dolRun(t)
	meta, err := st.Save("dol-fan", cfg, traj, rep)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if meta.ID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(meta.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "dol-fan" || loaded.Method != "dol" || loaded.Load != "fan_pump" {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Summary != rep.Summary {
		t.Errorf("summary changed on round trip:\n%+v\n%+v", loaded.Summary, rep.Summary)
	}
	if loaded.Mechanics != cfg.Mechanics {
		t.Errorf("mechanics changed: %+v", loaded.Mechanics)
	}

	series, err := st.LoadSeries(meta.ID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if series.Len() != 50 {
		t.Fatalf("expected 50 rows, got %d", series.Len())
	}
	for i := 0; i < series.Len(); i++ {
		if series.At(i) != rep.Series.At(i) {
			t.Fatalf("row %d differs: %+v vs %+v", i, series.At(i), rep.Series.At(i))
		}
	}
}

func TestMetadataConfig(t *testing.T) {
	st := New(t.TempDir())
	cfg, traj, rep := dolRun(t)
	cfg.Settle = 1.5
	meta, err := st.Save("", cfg, traj, rep)
	if err != nil {
		t.Fatal(err)
	}

	rebuilt, err := meta.Config()
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.Method != cfg.Method || rebuilt.Load != cfg.Load || rebuilt.Samples != cfg.Samples {
		t.Errorf("rebuilt config differs: %+v", rebuilt)
	}
	if rebuilt.Settle != 1.5 {
		t.Errorf("settle: got %v", rebuilt.Settle)
	}
	if rebuilt.Motor != cfg.Motor {
		t.Errorf("motor differs: %+v", rebuilt.Motor)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, traj, rep := dolRun(t)
	for i := 0; i < 3; i++ {
		if _, err := st.Save("", cfg, traj, rep); err != nil {
			t.Fatal(err)
		}
	}
	// stray directories are ignored
	os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.After(runs[i-1].Timestamp) {
			t.Error("runs not sorted newest first")
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreNotFound(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("load: expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSeries("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("series: expected ErrRunNotFound, got %v", err)
	}
	if err := st.Delete("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("delete: expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	st := New(t.TempDir())
	cfg, traj, rep := dolRun(t)
	meta, err := st.Save("", cfg, traj, rep)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(meta.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(meta.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("run still present: %v", err)
	}
}

func TestLoadSeriesCorrupt(t *testing.T) {
	st := New(t.TempDir())
	dir := filepath.Join(st.Dir(), "bad")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, seriesFile), []byte("time_s\n1\n"), 0644)

	if _, err := st.LoadSeries("bad"); err == nil {
		t.Error("expected error for short rows")
	}
}

package load

import (
	"errors"
	"math"
	"testing"
)

func TestTorqueProfiles(t *testing.T) {
	const base = 1000.0

	tests := []struct {
		name     string
		typ      Type
		ratio    float64
		expected float64
	}{
		{"constant torque standstill", ConstantTorque, 0, 300},
		{"constant torque half", ConstantTorque, 0.5, 650},
		{"constant torque full", ConstantTorque, 1, 1000},
		{"fan standstill", FanPump, 0, 0},
		{"fan half", FanPump, 0.5, 250},
		{"fan full", FanPump, 1, 1000},
		{"constant power floor", ConstantPower, 0.05, 1000},
		{"constant power at floor", ConstantPower, 0.1, 10000},
		{"constant power half", ConstantPower, 0.5, 2000},
		{"constant power full", ConstantPower, 1, 1000},
		{"overspeed clamps", FanPump, 1.2, 1000},
		{"negative clamps", ConstantTorque, -0.4, 300},
		{"unknown falls back", Type(42), 0, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Torque(tt.ratio, base, tt.typ)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %.3f, got %.3f", tt.expected, got)
			}
		})
	}
}

func TestTorqueBounds(t *testing.T) {
	const base = 750.0
	limits := map[Type]float64{
		ConstantTorque: base,
		FanPump:        base,
		ConstantPower:  10 * base,
	}

	for _, typ := range Types() {
		for i := -10; i <= 120; i++ {
			r := float64(i) / 100
			got := Torque(r, base, typ)
			if got < 0 {
				t.Errorf("%s at %.2f: negative torque %f", typ, r, got)
			}
			if got > limits[typ]+1e-9 {
				t.Errorf("%s at %.2f: %f exceeds %f", typ, r, got, limits[typ])
			}
		}
	}
}

func TestFanHasNoBreakaway(t *testing.T) {
	if got := Torque(0, 500, FanPump); got != 0 {
		t.Errorf("expected zero breakaway for fan, got %f", got)
	}
	if got := Torque(0, 500, ConstantTorque); got != 150 {
		t.Errorf("expected 30%% breakaway for constant torque, got %f", got)
	}
}

func TestParse(t *testing.T) {
	for _, typ := range Types() {
		got, err := Parse(typ.String())
		if err != nil {
			t.Fatalf("parse %s: %v", typ, err)
		}
		if got != typ {
			t.Errorf("expected %v, got %v", typ, got)
		}
		if err := typ.Validate(); err != nil {
			t.Errorf("validate %s: %v", typ, err)
		}
	}

	if _, err := Parse("hoist"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if err := Type(9).Validate(); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

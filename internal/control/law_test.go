package control

import (
	"errors"
	"math"
	"testing"
)

func mustLaw(t *testing.T, m Method) Law {
	t.Helper()
	law, err := NewLaw(m, 60, 460)
	if err != nil {
		t.Fatalf("NewLaw: %v", err)
	}
	return law
}

func TestVFDSetpoint(t *testing.T) {
	law := mustLaw(t, VFD(30, 0.15))

	tests := []struct {
		name    string
		t       float64
		freq    float64
		voltage float64
	}{
		{"standstill carries full boost", 0, 0, 460 * 0.15},
		{"inside boost window", 1.5, 3, 460*3.0/60 + 460*0.15*(1-3.0/6)},
		{"boost cutoff", 3, 6, 46},
		{"mid ramp", 15, 30, 230},
		{"ramp end", 30, 60, 460},
		{"after ramp holds", 45, 60, 460},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := law.Setpoint(tt.t)
			if math.Abs(sp.Frequency-tt.freq) > 1e-9 {
				t.Errorf("expected frequency %.3f, got %.3f", tt.freq, sp.Frequency)
			}
			if math.Abs(sp.Voltage-tt.voltage) > 1e-9 {
				t.Errorf("expected voltage %.3f, got %.3f", tt.voltage, sp.Voltage)
			}
		})
	}
}

func TestSoftStarterSetpoint(t *testing.T) {
	law := mustLaw(t, SoftStarter(20, 0.3))

	tests := []struct {
		t       float64
		voltage float64
	}{
		{0, 138},
		{10, 460 * 0.65},
		{20, 460},
		{25, 460},
	}

	for _, tt := range tests {
		sp := law.Setpoint(tt.t)
		if sp.Frequency != 60 {
			t.Errorf("t=%.1f: expected fixed 60 Hz, got %.3f", tt.t, sp.Frequency)
		}
		if math.Abs(sp.Voltage-tt.voltage) > 1e-9 {
			t.Errorf("t=%.1f: expected voltage %.3f, got %.3f", tt.t, tt.voltage, sp.Voltage)
		}
	}
}

func TestSoftStarterFullInitialVoltage(t *testing.T) {
	law := mustLaw(t, SoftStarter(20, 1.0))
	for _, ts := range []float64{0, 5, 19.9, 30} {
		if v := law.Setpoint(ts).Voltage; math.Abs(v-460) > 1e-9 {
			t.Errorf("t=%.1f: expected full voltage, got %.3f", ts, v)
		}
	}
}

func TestDOLSetpoint(t *testing.T) {
	law := mustLaw(t, DOL())
	sp := law.Setpoint(0)
	if sp.Frequency != 60 || sp.Voltage != 460 {
		t.Errorf("expected instant full setpoint, got %+v", sp)
	}
	if len(law.Breakpoints(DOLWindow)) != 0 {
		t.Error("DOL has no breakpoints")
	}
}

func TestVFDBreakpoints(t *testing.T) {
	law := mustLaw(t, VFD(30, 0.15))
	got := law.Breakpoints(30)
	want := []float64{0.5, 3, 4.5, 30}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("breakpoint %d: expected %f, got %f", i, want[i], got[i])
		}
	}

	if n := len(law.Breakpoints(2)); n != 1 {
		t.Errorf("expected one breakpoint inside a 2 s horizon, got %d", n)
	}
}

func TestMethodValidate(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		target error
	}{
		{"vfd zero ramp", VFD(0, 0.15), ErrInvalidMethod},
		{"vfd negative boost", VFD(10, -0.1), ErrInvalidMethod},
		{"soft zero ramp", SoftStarter(0, 0.3), ErrInvalidMethod},
		{"soft zero voltage", SoftStarter(10, 0), ErrInvalidMethod},
		{"soft over voltage", SoftStarter(10, 1.2), ErrInvalidMethod},
		{"unknown kind", Method{Kind: Kind(7)}, ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.method.Validate(); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if _, err := NewLaw(tt.method, 60, 460); err == nil {
				t.Error("NewLaw accepted invalid method")
			}
		})
	}

	if err := DOL().Validate(); err != nil {
		t.Errorf("DOL should validate: %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindVFD, KindSoftStarter, KindDOL} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("round trip %v: got %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("star-delta"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestHorizon(t *testing.T) {
	if h := VFD(30, 0.1).Horizon(); h != 30 {
		t.Errorf("expected 30, got %f", h)
	}
	if h := DOL().Horizon(); h != DOLWindow {
		t.Errorf("expected %f, got %f", DOLWindow, h)
	}
}

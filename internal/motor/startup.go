package motor

import (
	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/load"
)

// Startup is the rotor equation of motion under a starter control law.
// It is stateless; every call to Derive evaluates the torque regime afresh.
type Startup struct {
	motor     Motor
	mech      Mechanics
	law       control.Law
	loadType  load.Type
	torque    TorqueModel
	baseLoad  float64
	syncSpeed float64
}

func NewStartup(m Motor, mech Mechanics, law control.Law, lt load.Type) *Startup {
	return &Startup{
		motor:     m,
		mech:      mech,
		law:       law,
		loadType:  lt,
		torque:    NewTorqueModel(m, law.Method()),
		baseLoad:  mech.BaseLoadTorque(m),
		syncSpeed: m.SyncSpeed(),
	}
}

func (s *Startup) StateDim() int { return 1 }

func (s *Startup) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{s.Acceleration(x[0], t)}
}

// Acceleration is dω/dt in rad/s².
func (s *Startup) Acceleration(speed, t float64) float64 {
	w := max(speed, 0)
	te, _ := s.torque.Electromagnetic(w, s.law.Setpoint(t))
	tl := s.LoadTorque(w)

	acc := (te - tl - s.mech.Damping*w) / s.mech.Inertia
	if w <= 0 && acc < 0 {
		return 0
	}
	return acc
}

// LoadTorque is the demand of the driven machine at rotor speed w.
func (s *Startup) LoadTorque(w float64) float64 {
	return load.Torque(w/s.syncSpeed, s.baseLoad, s.loadType)
}

func (s *Startup) Clamp(x dynamo.State) dynamo.State {
	w := x[0]
	if w < 0 {
		w = 0
	}
	if w > s.syncSpeed {
		w = s.syncSpeed
	}
	return dynamo.State{w}
}

func (s *Startup) Breakpoints(horizon float64) []float64 {
	points := s.law.Breakpoints(horizon)

	m := s.law.Method()
	if m.Kind == control.KindVFD {
		// frequency at which the field speed reaches MinSyncSpeed
		f := MinSyncSpeed / s.motor.SyncSpeedAt(1)
		if t := m.RampTime * f / s.motor.BaseFrequency(); t < horizon {
			points = append(points, t)
		}
	}
	return points
}

package integrators

import (
	"testing"

	"github.com/san-kum/motorstart/internal/dynamo"
)

type rotor struct{}

func (r *rotor) StateDim() int { return 1 }
func (r *rotor) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{(1000 - 2*x[0]) / 150}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &rotor{}
	x := dynamo.State{0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &rotor{}
	x := dynamo.State{0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &rotor{}
	x := dynamo.State{0.0}
	tol := dynamo.Tolerance{Rel: 1e-6, Abs: 1e-6}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _ = integrator.StepAdaptive(dyn, x, 0, 0.01, tol)
	}
}

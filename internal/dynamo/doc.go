// Package dynamo provides the ODE primitives behind the startup engine.
//
// The package defines the interfaces and types used to integrate a
// first-order system dX/dt = f(X, t) over a sampled time grid:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE right-hand sides
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [Bounded] and [Discontinuous]: optional hints a system may implement
//   - [Simulator]: drives an integrator across output samples
//
// # Example
//
//	dyn := motor.NewStartup(m, mech, law, loadType)
//	s := dynamo.New(dyn, integrators.NewRK45())
//	result, err := s.RunSampled(ctx, dynamo.State{0}, times, dynamo.DefaultConfig())
//
// # Failure modes
//
// A run that cannot meet its step budget returns a [*SimulationError]
// wrapping [ErrNonConvergence]. Callers separate this from valid physical
// outcomes (a stalled rotor is a successful run) with errors.Is.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Independent runs may execute
// in parallel, see [ParallelFor].
package dynamo

// Package motor models a three-phase induction motor during startup.
//
// The model is lumped: rotor angular speed is the only state, and the
// electromagnetic torque comes from an empirical torque-slip curve rather
// than a flux model.
//
//   - [Motor]: nameplate data and the quantities derived from it
//   - [Mechanics]: inertia, damping and load level of the drive train
//   - [TorqueModel]: piecewise torque-slip characteristic per starter
//   - [Startup]: the equation of motion as a [dynamo.System]
//   - [DOL]: closed-form direct-on-line approximation
//
// # Equation of motion
//
//	J dω/dt = T_em(ω, t) - T_load(ω/ω_sync) - D ω
//
// The rotor never turns backwards: at standstill a negative net torque
// yields zero acceleration.
package motor

// Package control provides the starter control laws.
//
// A [Law] turns elapsed time since the start command into a frequency and
// voltage setpoint:
//
//   - VFD: linear frequency ramp with volts-per-hertz and low-speed boost
//   - SoftStarter: fixed frequency, linear voltage ramp
//   - DOL: full frequency and voltage from t = 0
//
// # Usage
//
//	law, _ := control.NewLaw(control.VFD(30, 0.15), 60, 460)
//	sp := law.Setpoint(12.5) // sp.Frequency == 25, sp.Voltage ~ 191.7
//
// Laws are immutable values and safe for concurrent use.
package control

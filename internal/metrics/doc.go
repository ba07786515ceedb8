// Package metrics turns a startup trajectory into engineering quantities:
// per-sample series (slip, torque, current, power, efficiency) and the
// summary figures used to compare starting methods.
//
// Everything here is a pure function of the trajectory and the
// configuration that produced it. The streaming Metric accumulators give
// the same summary figures one sample at a time for live displays.
package metrics

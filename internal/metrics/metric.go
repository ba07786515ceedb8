package metrics

import "math"

// Metric accumulates one figure over a stream of samples.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Running returns fresh accumulators for the live summary figures.
func Running() []Metric {
	return []Metric{NewEnergy(), NewPeakCurrent(), NewEfficiency()}
}

// Energy integrates input power with the trapezoidal rule, in kJ.
type Energy struct {
	name   string
	total  float64
	last   Sample
	primed bool
}

func NewEnergy() *Energy {
	return &Energy{name: "energy_kj"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s Sample) {
	if e.primed {
		e.total += 0.5 * (s.PowerIn + e.last.PowerIn) * (s.Time - e.last.Time)
	}
	e.last = s
	e.primed = true
}

func (e *Energy) Value() float64 { return e.total }

func (e *Energy) Reset() {
	e.total = 0
	e.last = Sample{}
	e.primed = false
}

type PeakCurrent struct {
	name string
	peak float64
}

func NewPeakCurrent() *PeakCurrent {
	return &PeakCurrent{name: "peak_current"}
}

func (p *PeakCurrent) Name() string     { return p.name }
func (p *PeakCurrent) Observe(s Sample) { p.peak = math.Max(p.peak, s.Current) }
func (p *PeakCurrent) Value() float64   { return p.peak }
func (p *PeakCurrent) Reset()           { p.peak = 0 }

// Efficiency averages efficiency over samples that draw power.
type Efficiency struct {
	name    string
	sum     float64
	samples int
}

func NewEfficiency() *Efficiency {
	return &Efficiency{name: "avg_efficiency"}
}

func (e *Efficiency) Name() string { return e.name }

func (e *Efficiency) Observe(s Sample) {
	if s.PowerIn > 0 {
		e.sum += s.Efficiency
		e.samples++
	}
}

func (e *Efficiency) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Efficiency) Reset() {
	e.sum = 0
	e.samples = 0
}

package metrics_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/motor"
	"github.com/san-kum/motorstart/internal/sim"
)

func referenceConfig(method control.Method, lt load.Type) sim.Config {
	m, err := motor.New(motor.HPToKW(800), 460, 60, 4, 0.95, 0.88)
	Expect(err).NotTo(HaveOccurred())
	mech := motor.Mechanics{Inertia: 150, Damping: 2, LoadFactor: 0.75}
	return sim.NewConfig(m, mech, method, lt)
}

func simulate(cfg sim.Config) *metrics.Report {
	traj, err := sim.Run(context.Background(), cfg)
	Expect(err).NotTo(HaveOccurred())
	rep, err := metrics.Compute(traj, cfg)
	Expect(err).NotTo(HaveOccurred())
	return rep
}

// still builds a trajectory that never leaves standstill.
func still(cfg sim.Config) *sim.Trajectory {
	times := cfg.Times()
	return &sim.Trajectory{
		Method: cfg.Method,
		Load:   cfg.Load,
		Times:  times,
		Speeds: make([]float64, len(times)),
	}
}

var _ = Describe("Compute", func() {
	Context("reference VFD start", func() {
		var (
			cfg sim.Config
			rep *metrics.Report
		)

		BeforeEach(func() {
			cfg = referenceConfig(control.VFD(30, 0.15), load.ConstantTorque)
			rep = simulate(cfg)
		})

		It("produces equal-length columns", func() {
			n := rep.Series.Len()
			Expect(n).To(Equal(cfg.Samples))
			for _, col := range [][]float64{
				rep.Series.Frequency, rep.Series.Voltage, rep.Series.Speed,
				rep.Series.SpeedRPM, rep.Series.Slip, rep.Series.Torque,
				rep.Series.LoadTorque, rep.Series.Current, rep.Series.PowerIn,
				rep.Series.PowerOut, rep.Series.Efficiency,
			} {
				Expect(col).To(HaveLen(n))
			}
		})

		It("keeps peak current under twice full load current", func() {
			Expect(rep.Summary.PeakCurrentRatio).To(BeNumerically("<", 2.0))
			Expect(rep.Summary.PeakCurrentRatio).To(BeNumerically(">", 1.0))
		})

		It("reports the drive inactive below half a hertz", func() {
			Expect(rep.Series.Frequency[0]).To(Equal(0.0))
			Expect(rep.Series.Slip[0]).To(Equal(100.0))
			Expect(rep.Series.Current[0]).To(Equal(0.0))
			Expect(rep.Series.PowerIn[0]).To(Equal(0.0))
			Expect(rep.Series.Efficiency[0]).To(Equal(0.0))
		})

		It("keeps slip a percentage", func() {
			for _, s := range rep.Series.Slip {
				Expect(s).To(BeNumerically(">=", 0))
				Expect(s).To(BeNumerically("<=", 100))
			}
		})

		It("consumes positive energy and reaches speed", func() {
			Expect(rep.Summary.EnergyKJ).To(BeNumerically(">", 0))
			Expect(rep.Summary.EnergyKWh).To(BeNumerically("~", rep.Summary.EnergyKJ/3600, 1e-9))
			Expect(rep.Summary.TimeToSpeed).To(BeNumerically(">", 0))
			Expect(rep.Summary.TimeToSpeed).To(BeNumerically("<=", 30))
			Expect(rep.Summary.Stalled).To(BeFalse())
			Expect(rep.Summary.FinalSpeedRPM).To(BeNumerically("~", motor.RadToRPM(rep.Summary.FinalSpeed), 1e-9))
		})

		It("agrees with the streaming accumulators", func() {
			running := metrics.Running()
			for i := 0; i < rep.Series.Len(); i++ {
				for _, m := range running {
					m.Observe(rep.Series.At(i))
				}
			}
			Expect(running[0].Value()).To(BeNumerically("~", rep.Summary.EnergyKJ, 1e-6*rep.Summary.EnergyKJ))
			Expect(running[1].Value()).To(Equal(rep.Summary.PeakCurrent))
			Expect(running[2].Value()).To(BeNumerically("~", rep.Summary.AverageEfficiency, 1e-9))

			for _, m := range running {
				m.Reset()
				Expect(m.Value()).To(Equal(0.0), m.Name())
			}
		})
	})

	It("uses more energy for longer VFD ramps", func() {
		var prev float64
		for _, ramp := range []float64{10, 20, 30} {
			rep := simulate(referenceConfig(control.VFD(ramp, 0.15), load.ConstantTorque))
			Expect(rep.Summary.EnergyKJ).To(BeNumerically(">", prev), "ramp %v", ramp)
			prev = rep.Summary.EnergyKJ
		}
	})

	It("draws 6.5 times full load current at a DOL start", func() {
		rep := simulate(referenceConfig(control.DOL(), load.ConstantTorque))
		Expect(rep.Summary.PeakCurrentRatio).To(BeNumerically("~", motor.DOLInrush, 1e-9))
		Expect(rep.Summary.PeakCurrentTime).To(Equal(0.0))
	})

	It("limits current more with a VFD than with a soft starter", func() {
		vfd := simulate(referenceConfig(control.VFD(20, 0.15), load.ConstantTorque))
		ss := simulate(referenceConfig(control.SoftStarter(20, 0.3), load.ConstantTorque))
		Expect(vfd.Summary.PeakCurrent).To(BeNumerically("<", ss.Summary.PeakCurrent))

		cmp := metrics.Compare(vfd.Summary, ss.Summary)
		Expect(cmp.CurrentReduction).To(BeNumerically(">", 0))
		Expect(cmp.EnergyDelta).To(BeNumerically("~", vfd.Summary.EnergyKJ-ss.Summary.EnergyKJ, 1e-9))
	})

	It("matches the line-voltage curve when a soft starter begins at full voltage", func() {
		cfg := referenceConfig(control.SoftStarter(5, 1.0), load.ConstantTorque)
		cfg.Samples = 200
		rep := simulate(cfg)

		m := cfg.Motor
		base := motor.NewTorqueModel(m, control.DOL())
		line := control.Setpoint{Frequency: m.BaseFrequency(), Voltage: m.Voltage()}
		fla := m.FullLoadCurrent()
		for i, w := range rep.Series.Speed {
			torque, _ := base.Electromagnetic(w, line)
			Expect(rep.Series.Torque[i]).To(BeNumerically("~", torque, 1e-9))
			current := math.Hypot(fla*torque/m.RatedTorque(), metrics.MagnetizingFraction*fla)
			Expect(rep.Series.Current[i]).To(BeNumerically("~", current, 1e-9))
		}
	})

	It("gives fans no breakaway torque", func() {
		ct := referenceConfig(control.SoftStarter(20, 0.3), load.ConstantTorque)
		fan := referenceConfig(control.SoftStarter(20, 0.3), load.FanPump)

		ctRep, err := metrics.Compute(still(ct), ct)
		Expect(err).NotTo(HaveOccurred())
		fanRep, err := metrics.Compute(still(fan), fan)
		Expect(err).NotTo(HaveOccurred())

		base := ct.Mechanics.BaseLoadTorque(ct.Motor)
		Expect(ctRep.Series.LoadTorque[0]).To(BeNumerically("~", load.Breakaway*base, 1e-9))
		Expect(fanRep.Series.LoadTorque[0]).To(Equal(0.0))
	})

	It("flags a start that never leaves standstill", func() {
		cfg := referenceConfig(control.SoftStarter(20, 0.3), load.ConstantTorque)
		rep, err := metrics.Compute(still(cfg), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Summary.Stalled).To(BeTrue())
		Expect(rep.Summary.TimeToSpeed).To(Equal(-1.0))
		Expect(rep.Summary.FinalSlip).To(Equal(100.0))
		for _, e := range rep.Series.Efficiency {
			Expect(e).To(Equal(0.0))
		}
	})

	DescribeTable("rejects malformed trajectories",
		func(mutate func(*sim.Trajectory) *sim.Trajectory) {
			cfg := referenceConfig(control.SoftStarter(20, 0.3), load.ConstantTorque)
			_, err := metrics.Compute(mutate(still(cfg)), cfg)
			Expect(errors.Is(err, metrics.ErrInvalidTrajectory)).To(BeTrue())
		},
		Entry("nil", func(t *sim.Trajectory) *sim.Trajectory { return nil }),
		Entry("length mismatch", func(t *sim.Trajectory) *sim.Trajectory {
			t.Speeds = t.Speeds[:3]
			return t
		}),
		Entry("single sample", func(t *sim.Trajectory) *sim.Trajectory {
			t.Times, t.Speeds = t.Times[:1], t.Speeds[:1]
			return t
		}),
		Entry("repeated time", func(t *sim.Trajectory) *sim.Trajectory {
			t.Times[2] = t.Times[1]
			return t
		}),
	)
})

var _ = Describe("Compare", func() {
	It("handles a baseline that never reached speed", func() {
		cmp := metrics.Compare(
			metrics.Summary{PeakCurrent: 50, EnergyKJ: 10, TimeToSpeed: 4},
			metrics.Summary{PeakCurrent: 200, EnergyKJ: 20, TimeToSpeed: -1},
		)
		Expect(cmp.CurrentReduction).To(Equal(75.0))
		Expect(cmp.EnergyDelta).To(Equal(-10.0))
		Expect(cmp.EnergyRatio).To(Equal(0.5))
		Expect(cmp.TimeToSpeedDelta).To(Equal(0.0))
	})
})

package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/dynamo"
	"github.com/san-kum/motorstart/internal/integrators"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/motor"
	"github.com/san-kum/motorstart/internal/sim"
)

func referenceConfig(method control.Method, lt load.Type) sim.Config {
	m, err := motor.New(motor.HPToKW(800), 460, 60, 4, 0.95, 0.88)
	Expect(err).NotTo(HaveOccurred())
	mech := motor.Mechanics{Inertia: 150, Damping: 2, LoadFactor: 0.75}
	return sim.NewConfig(m, mech, method, lt)
}

var _ = Describe("Run", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("VFD start with a constant torque load", func() {
		var (
			cfg  sim.Config
			traj *sim.Trajectory
		)

		BeforeEach(func() {
			cfg = referenceConfig(control.VFD(30, 0.15), load.ConstantTorque)
			var err error
			traj, err = sim.Run(ctx, cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("samples the whole ramp", func() {
			Expect(traj.Len()).To(Equal(sim.DefaultSamples))
			Expect(traj.Times[0]).To(Equal(0.0))
			Expect(traj.Times[traj.Len()-1]).To(BeNumerically("~", 30, 1e-9))
			for i := 1; i < traj.Len(); i++ {
				Expect(traj.Times[i]).To(BeNumerically(">", traj.Times[i-1]))
			}
		})

		It("keeps speed between standstill and synchronous speed", func() {
			sync := cfg.Motor.SyncSpeed()
			for _, w := range traj.Speeds {
				Expect(w).To(BeNumerically(">=", 0))
				Expect(w).To(BeNumerically("<=", sync))
			}
		})

		It("reaches near rated speed", func() {
			Expect(traj.FinalSpeed()).To(BeNumerically(">", 0.9*cfg.Motor.SyncSpeed()))
		})

		It("records solver work", func() {
			Expect(traj.Stats.Accepted).To(BeNumerically(">", 0))
			Expect(traj.Stats.Evaluations).To(BeNumerically(">", traj.Stats.Accepted))
		})
	})

	It("starts a fan load faster than a constant torque load", func() {
		ct, err := sim.Run(ctx, referenceConfig(control.VFD(30, 0.15), load.ConstantTorque))
		Expect(err).NotTo(HaveOccurred())
		fan, err := sim.Run(ctx, referenceConfig(control.VFD(30, 0.15), load.FanPump))
		Expect(err).NotTo(HaveOccurred())

		mid := ct.Len() / 2
		Expect(fan.Speeds[mid]).To(BeNumerically(">=", ct.Speeds[mid]))
	})

	It("returns a stalled constant power start as a result", func() {
		cfg := referenceConfig(control.VFD(30, 0.15), load.ConstantPower)
		traj, err := sim.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.FinalSpeed()).To(BeNumerically("<", 0.5*cfg.Motor.SyncSpeed()))
		Expect(traj.Stats.Forced).To(BeNumerically(">", 0))
	})

	It("brings a soft starter up to speed", func() {
		cfg := referenceConfig(control.SoftStarter(20, 0.3), load.ConstantTorque)
		traj, err := sim.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.FinalSpeed()).To(BeNumerically(">", 0.9*cfg.Motor.SyncSpeed()))
	})

	It("follows the closed form for DOL without integrating", func() {
		cfg := referenceConfig(control.DOL(), load.ConstantTorque)
		traj, err := sim.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(traj.Times[traj.Len()-1]).To(BeNumerically("~", control.DOLWindow, 1e-9))
		Expect(traj.Stats).To(Equal(dynamo.Stats{}))

		dol := motor.NewDOL(cfg.Motor)
		for i := range traj.Times {
			Expect(traj.Speeds[i]).To(Equal(dol.At(traj.Times[i]).Speed))
		}
	})

	It("extends the horizon by the settle time", func() {
		cfg := referenceConfig(control.VFD(10, 0.15), load.FanPump)
		cfg.Settle = 5
		cfg.Samples = 150
		traj, err := sim.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Len()).To(Equal(150))
		Expect(traj.Times[149]).To(BeNumerically("~", 15, 1e-9))
	})

	It("integrates with fixed step methods too", func() {
		cfg := referenceConfig(control.VFD(10, 0.15), load.FanPump)
		cfg.Integrator = "rk4"
		cfg.Samples = 200
		fixed, err := sim.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		cfg.Integrator = "rk45"
		adaptive, err := sim.Run(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(fixed.FinalSpeed()).To(BeNumerically("~", adaptive.FinalSpeed(), 0.5))
	})

	It("stops when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sim.Run(canceled, referenceConfig(control.VFD(30, 0.15), load.ConstantTorque))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("reports solver budget exhaustion", func() {
		cfg := referenceConfig(control.VFD(30, 0.15), load.ConstantTorque)
		cfg.Solver.MaxSteps = 10
		_, err := sim.Run(ctx, cfg)
		Expect(errors.Is(err, dynamo.ErrNonConvergence)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
	})
})

var _ = DescribeTable("Config.Validate",
	func(mutate func(*sim.Config), target error) {
		cfg := referenceConfig(control.VFD(30, 0.15), load.ConstantTorque)
		mutate(&cfg)
		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, target)).To(BeTrue(), err.Error())

		_, err = sim.Run(context.Background(), cfg)
		Expect(errors.Is(err, target)).To(BeTrue())
	},
	Entry("too few samples", func(c *sim.Config) { c.Samples = 1 }, dynamo.ErrParameterBounds),
	Entry("negative settle", func(c *sim.Config) { c.Settle = -1 }, dynamo.ErrParameterBounds),
	Entry("zero ramp", func(c *sim.Config) { c.Method.RampTime = 0 }, control.ErrInvalidMethod),
	Entry("boost out of range", func(c *sim.Config) { c.Method.VoltageBoost = 1.5 }, control.ErrInvalidMethod),
	Entry("unknown method", func(c *sim.Config) { c.Method.Kind = control.Kind(9) }, control.ErrUnknownMethod),
	Entry("unknown load", func(c *sim.Config) { c.Load = load.Type(7) }, load.ErrUnknownType),
	Entry("zero inertia", func(c *sim.Config) { c.Mechanics.Inertia = 0 }, motor.ErrInvalidNameplate),
	Entry("missing motor", func(c *sim.Config) { c.Motor = motor.Motor{} }, motor.ErrInvalidNameplate),
	Entry("unknown integrator", func(c *sim.Config) { c.Integrator = "verlet" }, integrators.ErrUnknownIntegrator),
	Entry("bad tolerance", func(c *sim.Config) { c.Solver.Tolerance.Rel = 0 }, dynamo.ErrParameterBounds),
)

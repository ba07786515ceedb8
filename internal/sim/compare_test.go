package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/motorstart/internal/control"
	"github.com/san-kum/motorstart/internal/load"
	"github.com/san-kum/motorstart/internal/sim"
)

var _ = Describe("Compare", func() {
	It("returns trajectories in scenario order", func() {
		base := referenceConfig(control.VFD(20, 0.15), load.FanPump)
		base.Samples = 200
		scenarios := sim.MethodScenarios(base, control.VFD(20, 0.15), control.SoftStarter(20, 0.3), control.DOL())

		trajs, err := sim.Compare(context.Background(), scenarios)
		Expect(err).NotTo(HaveOccurred())
		Expect(trajs).To(HaveLen(3))
		Expect(trajs[0].Method.Kind).To(Equal(control.KindVFD))
		Expect(trajs[1].Method.Kind).To(Equal(control.KindSoftStarter))
		Expect(trajs[2].Method.Kind).To(Equal(control.KindDOL))
		Expect(scenarios[1].Name).To(Equal("Soft Starter"))
	})

	It("names the failing scenario", func() {
		base := referenceConfig(control.VFD(20, 0.15), load.FanPump)
		scenarios := sim.MethodScenarios(base, control.VFD(20, 0.15), control.SoftStarter(0, 0.3))

		_, err := sim.Compare(context.Background(), scenarios)
		Expect(errors.Is(err, control.ErrInvalidMethod)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("Soft Starter"))
	})

	It("runs every load type", func() {
		base := referenceConfig(control.SoftStarter(10, 0.4), load.ConstantTorque)
		base.Samples = 200
		scenarios, trajs, err := sim.CompareLoads(context.Background(), base)
		Expect(err).NotTo(HaveOccurred())
		Expect(trajs).To(HaveLen(len(load.Types())))
		for i, lt := range load.Types() {
			Expect(trajs[i].Load).To(Equal(lt))
			Expect(scenarios[i].Config.Load).To(Equal(lt))
		}
	})
})

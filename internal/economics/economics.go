// Package economics prices a starting method over a year of operation:
// energy drawn by the starts themselves plus any loss the starter adds
// while the motor runs.
package economics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/motorstart/internal/control"
)

var ErrInvalidCosts = errors.New("economics: invalid cost assumptions")

// Costs are the site assumptions. Running losses are fractions of rated
// power dissipated continuously by the starter.
type Costs struct {
	VFDInstalled           float64 // $
	SoftStarterInstalled   float64 // $
	DOLInstalled           float64 // $
	HoursPerYear           float64
	EnergyPrice            float64 // $/kWh
	StartsPerDay           float64
	VFDRunningLoss         float64
	SoftStarterRunningLoss float64 // bypass contactor closes after the ramp
}

func DefaultCosts() Costs {
	return Costs{
		VFDInstalled:           70000,
		SoftStarterInstalled:   15000,
		DOLInstalled:           5000,
		HoursPerYear:           6000,
		EnergyPrice:            0.10,
		StartsPerDay:           2,
		VFDRunningLoss:         0.04,
		SoftStarterRunningLoss: 0,
	}
}

func (c Costs) Validate() error {
	for name, v := range map[string]float64{
		"vfd_installed":          c.VFDInstalled,
		"softstart_installed":    c.SoftStarterInstalled,
		"dol_installed":          c.DOLInstalled,
		"hours_per_year":         c.HoursPerYear,
		"energy_price":           c.EnergyPrice,
		"starts_per_day":         c.StartsPerDay,
		"vfd_running_loss":       c.VFDRunningLoss,
		"softstart_running_loss": c.SoftStarterRunningLoss,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidCosts, name, v)
		}
	}
	if c.HoursPerYear > 8760 {
		return fmt.Errorf("%w: hours_per_year exceeds a year, got %g", ErrInvalidCosts, c.HoursPerYear)
	}
	if c.VFDRunningLoss > 1 || c.SoftStarterRunningLoss > 1 {
		return fmt.Errorf("%w: running losses are fractions of rated power", ErrInvalidCosts)
	}
	return nil
}

func (c Costs) StartsPerYear() float64 { return c.StartsPerDay * 365 }

func (c Costs) installed(k control.Kind) float64 {
	switch k {
	case control.KindVFD:
		return c.VFDInstalled
	case control.KindSoftStarter:
		return c.SoftStarterInstalled
	default:
		return c.DOLInstalled
	}
}

func (c Costs) runningLoss(k control.Kind) float64 {
	switch k {
	case control.KindVFD:
		return c.VFDRunningLoss
	case control.KindSoftStarter:
		return c.SoftStarterRunningLoss
	default:
		return 0
	}
}

// Assessment is the yearly cost picture of one method. Money is in the
// currency of Costs.
type Assessment struct {
	Method            control.Kind
	Installed         float64
	EnergyPerStartKWh float64
	StartupCost       float64 // per year
	RunningLoss       float64 // per year
	AnnualCost        float64
}

// Analyze prices a method from the energy one start consumes (kJ) and the
// motor's rated power (kW).
func Analyze(kind control.Kind, energyKJ, ratedKW float64, c Costs) (Assessment, error) {
	if err := c.Validate(); err != nil {
		return Assessment{}, err
	}
	if energyKJ < 0 || ratedKW <= 0 {
		return Assessment{}, fmt.Errorf("%w: need energy >= 0 and rated power > 0", ErrInvalidCosts)
	}

	perStart := energyKJ / 3600
	a := Assessment{
		Method:            kind,
		Installed:         c.installed(kind),
		EnergyPerStartKWh: perStart,
		StartupCost:       perStart * c.EnergyPrice * c.StartsPerYear(),
		RunningLoss:       c.runningLoss(kind) * ratedKW * c.HoursPerYear * c.EnergyPrice,
	}
	a.AnnualCost = a.StartupCost + a.RunningLoss
	return a, nil
}

// Payback is the years the more expensive installation needs to recover
// its premium through lower annual cost. It is +Inf when it never does
// and 0 when it is not more expensive.
func Payback(premium, baseline Assessment) float64 {
	extra := premium.Installed - baseline.Installed
	if extra <= 0 {
		return 0
	}
	savings := baseline.AnnualCost - premium.AnnualCost
	if savings <= 0 {
		return math.Inf(1)
	}
	return extra / savings
}

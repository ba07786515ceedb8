package config

import "sort"

// Presets are named scenarios layered over DefaultConfig.
var Presets = map[string]*Config{
	"vfd":            preset(func(c *Config) {}),
	"softstart":      preset(func(c *Config) { c.Start.Method = "softstart" }),
	"dol":            preset(func(c *Config) { c.Start.Method = "dol" }),
	"vfd-fan":        preset(vfdFan),
	"softstart-pump": preset(softStartPump),
	"winder":         preset(winder),
}

func vfdFan(c *Config) {
	c.Load = "fan_pump"
	c.Start.VFD.RampTime = 20
}

func softStartPump(c *Config) {
	c.Start.Method = "softstart"
	c.Load = "fan_pump"
	c.Start.SoftStart.RampTime = 15
}

// winder is a constant power load on a long, boosted ramp.
func winder(c *Config) {
	c.Load = "constant_power"
	c.Mechanics.LoadFactor = 0.5
	c.Start.VFD.RampTime = 40
	c.Start.VFD.Boost = 0.25
}

func preset(edit func(*Config)) *Config {
	c := DefaultConfig()
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package config

import "sort"

// Presets are named scenes. Each is applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	// the classic scene: a box filled one particle at a time
	"box": func(c *Config) {},
	"disk": func(c *Config) {
		c.Container.Kind = "disk"
		c.Container.Radius = 340
	},
	"stream": func(c *Config) {
		c.Particles.Pattern = "stream"
		c.Particles.Capacity = 2000
		c.Particles.Radius = 4
		c.Run.SpawnDelay = 0.005
	},
	"dense": func(c *Config) {
		c.Particles.Pattern = "lattice"
		c.Particles.Capacity = 5000
		c.Particles.Radius = 3
		c.Particles.Spread = 300
		c.Physics.Workers = 4
		c.Physics.CellCapacity = 8
		c.Run.SpawnDelay = 0
		c.Run.InitialActive = 0
	},
	"bouncy": func(c *Config) {
		c.Particles.Pattern = "random"
		c.Particles.Capacity = 300
		c.Particles.Spread = 250
		c.Particles.Seed = 42
		c.Container.Response = 1
		c.Physics.Gravity = 400
		c.Run.SpawnDelay = 0
		c.Run.InitialActive = 0
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

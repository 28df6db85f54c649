package config

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCapacity    = 1000
	DefaultRadius      = 8.0
	DefaultGravity     = 1000.0
	DefaultSubsteps    = 8
	DefaultFrames      = 600
	DefaultDt          = 1.0 / 60.0
	DefaultSpawnDelay  = 0.025
	DefaultHalfSize    = 340.0
	DefaultBorderWidth = 10.0
	DefaultResponse    = 0.75

	containSlack = 1e-6
)

type Config struct {
	Particles ParticlesConfig `yaml:"particles"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Container ContainerConfig `yaml:"container"`
	Run       RunConfig       `yaml:"run"`
}

type ParticlesConfig struct {
	Capacity int     `yaml:"capacity"`
	Radius   float64 `yaml:"radius"`
	Pattern  string  `yaml:"pattern"`
	// Origin defaults to a point above the container centre.
	Origin []float64 `yaml:"origin,omitempty"`
	Spread float64   `yaml:"spread"`
	Seed   int64     `yaml:"seed"`
}

type PhysicsConfig struct {
	Gravity           float64 `yaml:"gravity"`
	Damping           float64 `yaml:"damping"`
	Substeps          int     `yaml:"substeps"`
	CollisionResponse float64 `yaml:"collision_response"`
	CollisionSlop     float64 `yaml:"collision_slop"`
	Broadphase        string  `yaml:"broadphase"`
	CellCapacity      int     `yaml:"cell_capacity"`
	Workers           int     `yaml:"workers"`
}

type ContainerConfig struct {
	Kind        string    `yaml:"kind"`
	Center      []float64 `yaml:"center"`
	HalfSize    float64   `yaml:"half_size"`
	BorderWidth float64   `yaml:"border_width"`
	Radius      float64   `yaml:"radius"`
	Response    float64   `yaml:"response"`
	HardClamp   bool      `yaml:"hard_clamp"`
}

type RunConfig struct {
	Frames        int     `yaml:"frames"`
	Dt            float64 `yaml:"dt"`
	SpawnDelay    float64 `yaml:"spawn_delay"`
	InitialActive int     `yaml:"initial_active"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: ParticlesConfig{
			Capacity: DefaultCapacity,
			Radius:   DefaultRadius,
			Pattern:  "alternating",
			Spread:   DefaultRadius,
		},
		Physics: PhysicsConfig{
			Gravity:           DefaultGravity,
			Substeps:          DefaultSubsteps,
			CollisionResponse: DefaultResponse,
			Broadphase:        string(broadphase.KindGrid),
		},
		Container: ContainerConfig{
			Kind:        "box",
			Center:      []float64{640, 360},
			HalfSize:    DefaultHalfSize,
			BorderWidth: DefaultBorderWidth,
			Radius:      DefaultHalfSize,
			Response:    DefaultResponse,
		},
		Run: RunConfig{
			Frames:     DefaultFrames,
			Dt:         DefaultDt,
			SpawnDelay: DefaultSpawnDelay,
		},
	}
}

// Load overlays the file at path on DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate resolves every section the way the simulator will, so a config
// that passes here builds.
func (c *Config) Validate() error {
	sc, err := c.SimConfig()
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	if err := sc.Container.Validate(sc.Radius); err != nil {
		return err
	}
	if _, err := c.SpawnSpec(); err != nil {
		return err
	}
	if c.Run.Frames <= 0 {
		return dynamo.NewConfigError("run.frames", c.Run.Frames, dynamo.ErrInvalidConfig)
	}
	if !(c.Run.Dt > 0) {
		return dynamo.NewConfigError("run.dt", c.Run.Dt, dynamo.ErrInvalidTimestep)
	}
	if c.Run.SpawnDelay < 0 {
		return dynamo.NewConfigError("run.spawn_delay", c.Run.SpawnDelay, dynamo.ErrInvalidConfig)
	}
	if c.Run.InitialActive < 0 || c.Run.InitialActive > c.Particles.Capacity {
		return dynamo.NewConfigError("run.initial_active", c.Run.InitialActive, dynamo.ErrActiveCount)
	}
	return nil
}

// ContainmentTolerance is how far past the wall a particle centre may sit at
// the end of a frame: the integrate phase runs after the container phase, so
// gravity carries a resting particle g*subDt^2 beyond the clamp.
func (c *Config) ContainmentTolerance() float64 {
	sub := c.Run.Dt / float64(max(c.Physics.Substeps, 1))
	return math.Abs(c.Physics.Gravity)*sub*sub + containSlack
}

// ContainerShape converts the container section.
func (c *Config) ContainerShape() (dynamo.Container, error) {
	kind, err := dynamo.ParseContainerKind(c.Container.Kind)
	if err != nil {
		return dynamo.Container{}, err
	}
	center, err := vec("container.center", c.Container.Center)
	if err != nil {
		return dynamo.Container{}, err
	}
	if kind == dynamo.ContainerDisk {
		return dynamo.NewDisk(center, c.Container.Radius), nil
	}
	return dynamo.NewBox(center, c.Container.HalfSize, c.Container.BorderWidth), nil
}

func (c *Config) SimConfig() (sim.Config, error) {
	shape, err := c.ContainerShape()
	if err != nil {
		return sim.Config{}, err
	}
	bp, err := broadphase.ParseKind(c.Physics.Broadphase)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Capacity:          c.Particles.Capacity,
		Radius:            c.Particles.Radius,
		Gravity:           c.Physics.Gravity,
		Damping:           c.Physics.Damping,
		Substeps:          c.Physics.Substeps,
		Container:         shape,
		ContainerResponse: c.Container.Response,
		HardClamp:         c.Container.HardClamp,
		CollisionResponse: c.Physics.CollisionResponse,
		CollisionSlop:     c.Physics.CollisionSlop,
		Broadphase:        bp,
		CellCapacity:      c.Physics.CellCapacity,
		Workers:           c.Physics.Workers,
	}, nil
}

func (c *Config) RunnerConfig() sim.RunConfig {
	return sim.RunConfig{
		Frames:        c.Run.Frames,
		Dt:            c.Run.Dt,
		SpawnDelay:    c.Run.SpawnDelay,
		InitialActive: c.Run.InitialActive,
	}
}

func (c *Config) SpawnSpec() (particles.SpawnSpec, error) {
	pattern, err := particles.ParsePattern(c.Particles.Pattern)
	if err != nil {
		return particles.SpawnSpec{}, err
	}
	var origin r2.Vec
	if len(c.Particles.Origin) > 0 {
		if origin, err = vec("particles.origin", c.Particles.Origin); err != nil {
			return particles.SpawnSpec{}, err
		}
	} else {
		shape, err := c.ContainerShape()
		if err != nil {
			return particles.SpawnSpec{}, err
		}
		origin = r2.Vec{X: shape.Center.X, Y: shape.Center.Y - shape.Extent()/2}
	}
	return particles.SpawnSpec{
		Pattern: pattern,
		Origin:  origin,
		Spread:  c.Particles.Spread,
		Seed:    c.Particles.Seed,
	}, nil
}

// Build constructs a simulator with its particles laid out and a runner
// around it.
func (c *Config) Build(opts ...sim.Option) (*sim.Runner, error) {
	return c.BuildRunner(c.RunnerConfig(), opts...)
}

// BuildRunner is Build with the runner settings overridden.
func (c *Config) BuildRunner(rc sim.RunConfig, opts ...sim.Option) (*sim.Runner, error) {
	sc, err := c.SimConfig()
	if err != nil {
		return nil, err
	}
	spec, err := c.SpawnSpec()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(sc, opts...)
	if err != nil {
		return nil, err
	}
	particles.Instantiate(s.Store(), spec)
	return sim.NewRunner(s, rc), nil
}

func vec(field string, xs []float64) (r2.Vec, error) {
	if len(xs) != 2 {
		return r2.Vec{}, dynamo.NewConfigError(field, xs, dynamo.ErrInvalidConfig)
	}
	return r2.Vec{X: xs[0], Y: xs[1]}, nil
}

var numericParams = map[string]func(c *Config, v float64){
	"particles.capacity":         func(c *Config, v float64) { c.Particles.Capacity = int(v) },
	"particles.radius":           func(c *Config, v float64) { c.Particles.Radius = v },
	"particles.spread":           func(c *Config, v float64) { c.Particles.Spread = v },
	"physics.gravity":            func(c *Config, v float64) { c.Physics.Gravity = v },
	"physics.damping":            func(c *Config, v float64) { c.Physics.Damping = v },
	"physics.substeps":           func(c *Config, v float64) { c.Physics.Substeps = int(v) },
	"physics.collision_response": func(c *Config, v float64) { c.Physics.CollisionResponse = v },
	"physics.collision_slop":     func(c *Config, v float64) { c.Physics.CollisionSlop = v },
	"physics.cell_capacity":      func(c *Config, v float64) { c.Physics.CellCapacity = int(v) },
	"container.response":         func(c *Config, v float64) { c.Container.Response = v },
	"run.frames":                 func(c *Config, v float64) { c.Run.Frames = int(v) },
	"run.dt":                     func(c *Config, v float64) { c.Run.Dt = v },
	"run.spawn_delay":            func(c *Config, v float64) { c.Run.SpawnDelay = v },
}

// Set assigns a numeric field by its yaml path, e.g. "physics.substeps".
// Integer fields truncate v.
func (c *Config) Set(key string, v float64) error {
	set, ok := numericParams[key]
	if !ok {
		return dynamo.NewConfigError(key, v, dynamo.ErrInvalidConfig)
	}
	set(c, v)
	return nil
}

// ParamNames lists the keys Set accepts.
func ParamNames() []string {
	names := make([]string, 0, len(numericParams))
	for k := range numericParams {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

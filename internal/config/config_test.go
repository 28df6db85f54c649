package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Run.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Particles.Capacity != DefaultCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultCapacity, cfg.Particles.Capacity)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	data := []byte(`
particles:
  capacity: 250
container:
  kind: circle
  radius: 200
physics:
  substeps: 4
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.Capacity != 250 {
		t.Errorf("expected capacity 250, got %d", cfg.Particles.Capacity)
	}
	if cfg.Particles.Radius != DefaultRadius {
		t.Errorf("radius should keep its default, got %v", cfg.Particles.Radius)
	}

	sc, err := cfg.SimConfig()
	if err != nil {
		t.Fatalf("SimConfig: %v", err)
	}
	if sc.Container.Kind != dynamo.ContainerDisk || sc.Container.Radius != 200 {
		t.Errorf("unexpected container %+v", sc.Container)
	}
	if sc.Substeps != 4 {
		t.Errorf("expected 4 substeps, got %d", sc.Substeps)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("container:\n  kind: hexagon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, dynamo.ErrUnknownContainer) {
		t.Errorf("expected ErrUnknownContainer, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("dense")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Particles.Capacity != cfg.Particles.Capacity || loaded.Physics.Workers != cfg.Physics.Workers {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero capacity", func(c *Config) { c.Particles.Capacity = 0 }, dynamo.ErrInvalidCapacity},
		{"negative radius", func(c *Config) { c.Particles.Radius = -1 }, dynamo.ErrNonPositiveRadius},
		{"unknown pattern", func(c *Config) { c.Particles.Pattern = "spiral" }, dynamo.ErrInvalidConfig},
		{"bad center", func(c *Config) { c.Container.Center = []float64{1} }, dynamo.ErrInvalidConfig},
		{"box too small", func(c *Config) { c.Container.HalfSize = 12 }, dynamo.ErrInvalidConfig},
		{"zero dt", func(c *Config) { c.Run.Dt = 0 }, dynamo.ErrInvalidTimestep},
		{"zero frames", func(c *Config) { c.Run.Frames = 0 }, dynamo.ErrInvalidConfig},
		{"initial above capacity", func(c *Config) { c.Run.InitialActive = 5000 }, dynamo.ErrActiveCount},
		{"unknown broadphase", func(c *Config) { c.Physics.Broadphase = "bvh" }, dynamo.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSpawnSpecDefaultsAboveCentre(t *testing.T) {
	cfg := DefaultConfig()
	spec, err := cfg.SpawnSpec()
	if err != nil {
		t.Fatal(err)
	}
	if spec.Pattern != particles.PatternAlternating {
		t.Errorf("expected alternating pattern, got %v", spec.Pattern)
	}
	if spec.Origin.X != 640 || spec.Origin.Y != 360-DefaultHalfSize/2 {
		t.Errorf("unexpected origin %v", spec.Origin)
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("preset invalid: %v", err)
			}
			r, err := cfg.Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if _, err := r.Advance(cfg.Run.Dt); err != nil {
				t.Fatalf("Advance: %v", err)
			}
		})
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
	if got := GetPreset("disk"); got.Container.Kind != "disk" {
		t.Errorf("expected disk container, got %q", got.Container.Kind)
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Set("physics.substeps", 3.9); err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.Substeps != 3 {
		t.Errorf("expected substeps 3, got %d", cfg.Physics.Substeps)
	}
	if err := cfg.Set("container.response", 0.5); err != nil {
		t.Fatal(err)
	}
	if cfg.Container.Response != 0.5 {
		t.Errorf("expected response 0.5, got %v", cfg.Container.Response)
	}

	err := cfg.Set("physics.warp", 1)
	var ce *dynamo.ConfigError
	if !errors.As(err, &ce) || ce.Field != "physics.warp" {
		t.Errorf("expected ConfigError for physics.warp, got %v", err)
	}
	if len(ParamNames()) != len(numericParams) {
		t.Error("ParamNames should list every settable key")
	}
}

func TestZeroSpawnDelayActivatesWholeStore(t *testing.T) {
	for _, name := range []string{"box", "disk", "stream"} {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			cfg.Run.SpawnDelay = 0
			r, err := cfg.Build()
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 10; i++ {
				if _, err := r.Advance(cfg.Run.Dt); err != nil {
					t.Fatal(err)
				}
			}
			if r.Active() != cfg.Particles.Capacity {
				t.Errorf("expected %d active, got %d", cfg.Particles.Capacity, r.Active())
			}
		})
	}
}

func TestDefaultSceneSpawnsFromEmpty(t *testing.T) {
	cfg := DefaultConfig()
	r, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if r.Active() != 0 {
		t.Fatalf("expected an empty start, got %d active", r.Active())
	}
	// two frames of 1/60s pass the 0.025s spawn delay once
	for i := 0; i < 2; i++ {
		if _, err := r.Advance(cfg.Run.Dt); err != nil {
			t.Fatal(err)
		}
	}
	if r.Active() != 1 {
		t.Errorf("expected 1 active, got %d", r.Active())
	}
}

func TestContainmentTolerance(t *testing.T) {
	cfg := DefaultConfig()
	sub := DefaultDt / DefaultSubsteps
	want := DefaultGravity*sub*sub + containSlack
	if got := cfg.ContainmentTolerance(); math.Abs(got-want) > 1e-12 {
		t.Errorf("tolerance = %v, want %v", got, want)
	}
	if cfg.ContainmentTolerance() >= cfg.Particles.Radius/10 {
		t.Errorf("tolerance %v is not small next to radius %v", cfg.ContainmentTolerance(), cfg.Particles.Radius)
	}

	shape, err := cfg.ContainerShape()
	if err != nil {
		t.Fatal(err)
	}
	store, err := particles.New(2, cfg.Particles.Radius)
	if err != nil {
		t.Fatal(err)
	}
	floor := shape.Floor(cfg.Particles.Radius)
	resting := r2.Vec{X: shape.Center.X, Y: floor + cfg.ContainmentTolerance()/2}
	poking := r2.Vec{X: shape.Center.X + 50, Y: floor + cfg.Particles.Radius/2}
	store.Place(0, resting, resting)
	store.Place(1, poking, poking)

	c := metrics.NewContainment(shape, cfg.ContainmentTolerance())
	c.Observe(store, 2, sub)
	if c.Escaped() != 1 {
		t.Errorf("expected only the particle half a radius through the floor to escape, got %d", c.Escaped())
	}
}

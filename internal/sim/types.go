package sim

import (
	"math"
	"time"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/solver"
	"gonum.org/v1/gonum/spatial/r2"
)

// Config is fixed for the lifetime of a Simulator.
type Config struct {
	Capacity int
	Radius   float64
	Gravity  float64
	Damping  float64
	Substeps int

	Container         dynamo.Container
	ContainerResponse float64
	HardClamp         bool

	CollisionResponse float64
	CollisionSlop     float64

	Broadphase   broadphase.Kind
	CellCapacity int
	// Workers > 1 resolves collisions on the grid in parallel.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Capacity:          1000,
		Radius:            8,
		Gravity:           1000,
		Substeps:          8,
		Container:         dynamo.NewBox(r2.Vec{X: 640, Y: 360}, 340, 10),
		ContainerResponse: solver.DefaultContainerResponse,
		CollisionResponse: solver.DefaultResponse,
		Broadphase:        broadphase.KindGrid,
	}
}

// Validate checks everything that does not need allocation. The container
// itself is validated when the constraint is built.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return dynamo.NewConfigError("capacity", c.Capacity, dynamo.ErrInvalidCapacity)
	case !(c.Radius > 0) || math.IsInf(c.Radius, 0):
		return dynamo.NewConfigError("radius", c.Radius, dynamo.ErrNonPositiveRadius)
	case math.IsNaN(c.Gravity) || math.IsInf(c.Gravity, 0):
		return dynamo.NewConfigError("gravity", c.Gravity, dynamo.ErrInvalidConfig)
	case !(c.Damping >= 0 && c.Damping < 1):
		return dynamo.NewConfigError("damping", c.Damping, dynamo.ErrInvalidConfig)
	case c.Substeps < 1:
		return dynamo.NewConfigError("substeps", c.Substeps, dynamo.ErrInvalidConfig)
	case !(c.CollisionResponse > 0 && c.CollisionResponse <= 1):
		return dynamo.NewConfigError("collision_response", c.CollisionResponse, dynamo.ErrInvalidConfig)
	case !(c.CollisionSlop >= 0):
		return dynamo.NewConfigError("collision_slop", c.CollisionSlop, dynamo.ErrInvalidConfig)
	case c.CellCapacity < 0:
		return dynamo.NewConfigError("cell_capacity", c.CellCapacity, dynamo.ErrInvalidConfig)
	case c.Workers < 0:
		return dynamo.NewConfigError("workers", c.Workers, dynamo.ErrInvalidConfig)
	}
	if _, err := broadphase.ParseKind(string(c.Broadphase)); err != nil {
		return err
	}
	return nil
}

// StepStats aggregates the local recoveries and work of one frame.
type StepStats struct {
	Substeps   int
	Candidates int
	Contacts   int
	// Degenerate pairs had coincident centres and were skipped.
	Degenerate int
	// Overflow counts particles left out of a full grid cell, summed over
	// substeps.
	Overflow int
	WallHits int
}

func (s *StepStats) addContacts(c solver.Contacts) {
	s.Candidates += c.Candidates
	s.Contacts += c.Resolved
	s.Degenerate += c.Degenerate
}

// Frame is what observers see after every Step.
type Frame struct {
	Index   int
	Time    float64
	Dt      float64
	Active  int
	Stats   StepStats
	Elapsed time.Duration
}

type Observer interface {
	OnFrame(f Frame, store *particles.Store)
}

// Metric accumulates a scalar over a run. dt is the substep length, the
// unit of the implicit velocity.
type Metric interface {
	Name() string
	Observe(store *particles.Store, active int, dt float64)
	Value() float64
	Reset()
}

type Result struct {
	Frames  []Frame
	Metrics map[string]float64
	Active  int
	SimTime float64
}

package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/integrators"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/solver"
	"gonum.org/v1/gonum/spatial/r2"
)

// Simulator owns the particle arena and runs fixed substeps over it. It is
// not safe for concurrent use; one goroutine drives it and reads it back.
type Simulator struct {
	cfg Config

	store     *particles.Store
	gravity   *integrators.Gravity
	verlet    *integrators.Verlet
	bp        broadphase.Broadphase
	grid      *broadphase.UniformGrid
	pairs     *solver.PairConstraint
	parallel  *solver.ParallelPairs
	container *solver.ContainerConstraint

	logger *slog.Logger
	frame  int
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithStore supplies a pre-built arena, e.g. one with per-particle radii.
// Its capacity replaces Config.Capacity.
func WithStore(st *particles.Store) Option {
	return func(s *Simulator) { s.store = st }
}

// New validates cfg and allocates everything the simulation needs. Nothing
// is allocated after this returns.
func New(cfg Config, opts ...Option) (*Simulator, error) {
	s := &Simulator{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.store != nil {
		s.cfg.Capacity = s.store.Cap()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	if s.store == nil {
		st, err := particles.New(s.cfg.Capacity, s.cfg.Radius)
		if err != nil {
			return nil, err
		}
		s.store = st
	}
	maxRadius := math.Max(s.cfg.Radius, s.store.MaxRadius())

	container, err := solver.NewContainerConstraint(s.cfg.Container, maxRadius, s.cfg.ContainerResponse, s.cfg.HardClamp)
	if err != nil {
		return nil, err
	}
	s.container = container

	bp, err := broadphase.New(s.cfg.Broadphase, s.cfg.Container, maxRadius, s.cfg.CellCapacity)
	if err != nil {
		return nil, err
	}
	s.bp = bp

	s.pairs = solver.NewPairConstraint(s.cfg.CollisionResponse, s.cfg.CollisionSlop)
	if grid, ok := bp.(*broadphase.UniformGrid); ok {
		s.grid = grid
		if s.cfg.Workers > 1 {
			s.parallel = solver.NewParallelPairs(s.pairs, s.cfg.Workers)
		}
	}

	s.gravity = integrators.NewGravity(s.cfg.Gravity)
	s.verlet = integrators.NewVerlet(s.cfg.Damping)

	s.logger.Debug("simulator ready",
		"capacity", s.cfg.Capacity,
		"container", s.cfg.Container.Kind.String(),
		"broadphase", bp.Name(),
		"substeps", s.cfg.Substeps,
		"workers", s.cfg.Workers,
	)
	return s, nil
}

// Step advances one frame of length dt split into Config.Substeps
// substeps. active selects the live prefix; zero is a no-op.
func (s *Simulator) Step(active int, dt float64) (StepStats, error) {
	if err := s.store.CheckActive(active); err != nil {
		return StepStats{}, err
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return StepStats{}, fmt.Errorf("dt=%v: %w", dt, dynamo.ErrInvalidTimestep)
	}
	s.frame++
	if active == 0 {
		return StepStats{}, nil
	}

	subDt := dt / float64(s.cfg.Substeps)
	var stats StepStats
	for i := 0; i < s.cfg.Substeps; i++ {
		s.substep(active, subDt, &stats)
	}

	if stats.Overflow > 0 {
		s.logger.Warn("cell overflow",
			"frame", s.frame,
			"dropped", stats.Overflow,
			"cell_capacity", s.cfg.CellCapacity,
		)
	}
	return stats, nil
}

// substep: gravity, broadphase + pairs, container, integrate. Both
// constraint kinds act on the same pre-integration positions.
func (s *Simulator) substep(active int, subDt float64, stats *StepStats) {
	s.gravity.Apply(s.store, active)

	stats.Overflow += s.bp.Rebuild(s.store, active)
	if s.parallel != nil {
		stats.addContacts(s.parallel.Resolve(s.store, s.grid))
	} else {
		stats.addContacts(s.pairs.Resolve(s.store, s.bp))
	}

	stats.WallHits += s.container.Resolve(s.store, active)
	s.verlet.Integrate(s.store, active, subDt)
	stats.Substeps++
}

// Positions appends the live positions to dst.
func (s *Simulator) Positions(active int, dst []r2.Vec) []r2.Vec {
	return s.store.Positions(active, dst)
}

// VelocityEstimate is (curr-old)/dt for particle i. Pass SubstepDt(frameDt)
// for a physical velocity.
func (s *Simulator) VelocityEstimate(i int, dt float64) r2.Vec {
	return s.store.VelocityEstimate(i, dt)
}

func (s *Simulator) SubstepDt(frameDt float64) float64 {
	return frameDt / float64(s.cfg.Substeps)
}

func (s *Simulator) Store() *particles.Store {
	return s.store
}

func (s *Simulator) Container() dynamo.Container {
	return s.cfg.Container
}

func (s *Simulator) Config() Config {
	return s.cfg
}

func (s *Simulator) Broadphase() string {
	return s.bp.Name()
}

func (s *Simulator) Logger() *slog.Logger {
	return s.logger
}

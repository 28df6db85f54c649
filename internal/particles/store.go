// Package particles holds the fixed-capacity particle arena.
//
// The store owns data only. Which prefix of it is live is decided by the
// host and passed to every call as an active count.
package particles

import (
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// MaxCapacity bounds a single store allocation.
const MaxCapacity = 1 << 22

// Particle is a disk integrated with position Verlet. Curr-Old is the
// displacement over one substep; Acc is zero outside the force phase.
type Particle struct {
	Curr   r2.Vec
	Old    r2.Vec
	Acc    r2.Vec
	Radius float64
}

// Velocity returns the implicit per-substep displacement.
func (p *Particle) Velocity() r2.Vec {
	return r2.Sub(p.Curr, p.Old)
}

type Store struct {
	particles []Particle
	maxRadius float64
}

// New allocates capacity particles, all at the origin with the given radius.
func New(capacity int, radius float64) (*Store, error) {
	if capacity <= 0 {
		return nil, dynamo.NewConfigError("particles.capacity", capacity, dynamo.ErrInvalidCapacity)
	}
	if capacity > MaxCapacity {
		return nil, dynamo.NewConfigError("particles.capacity", capacity, dynamo.ErrResourceExhausted)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, dynamo.NewConfigError("particles.radius", radius, dynamo.ErrNonPositiveRadius)
	}

	ps := make([]Particle, capacity)
	for i := range ps {
		ps[i].Radius = radius
	}
	return &Store{particles: ps, maxRadius: radius}, nil
}

func (s *Store) Cap() int { return len(s.particles) }

// MaxRadius is the largest radius any particle has had; the grid sizes its
// cells from it.
func (s *Store) MaxRadius() float64 { return s.maxRadius }

// CheckActive reports whether active is a valid live-prefix length.
func (s *Store) CheckActive(active int) error {
	if active < 0 || active > len(s.particles) {
		return dynamo.NewConfigError("active", active, dynamo.ErrActiveCount)
	}
	return nil
}

// At returns particle i for in-place mutation by the simulation core.
func (s *Store) At(i int) *Particle {
	return &s.particles[i]
}

// Live returns the live prefix. The slice aliases the store.
func (s *Store) Live(active int) []Particle {
	return s.particles[:active]
}

// Positions appends the current position of every live particle to dst.
func (s *Store) Positions(active int, dst []r2.Vec) []r2.Vec {
	for i := range s.particles[:active] {
		dst = append(dst, s.particles[i].Curr)
	}
	return dst
}

// VelocityEstimate converts the implicit displacement of particle i into a
// velocity for a substep of length dt.
func (s *Store) VelocityEstimate(i int, dt float64) r2.Vec {
	if dt <= 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/dt, s.particles[i].Velocity())
}

// Place sets both positions of particle i and clears its accumulator.
func (s *Store) Place(i int, curr, old r2.Vec) {
	p := &s.particles[i]
	p.Curr = curr
	p.Old = old
	p.Acc = r2.Vec{}
}

// SetRadius changes the radius of particle i. It must be called before the
// simulation is built; the grid does not resize afterwards.
func (s *Store) SetRadius(i int, r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return dynamo.NewConfigError("particles.radius", r, dynamo.ErrNonPositiveRadius)
	}
	s.particles[i].Radius = r
	if r > s.maxRadius {
		s.maxRadius = r
	}
	return nil
}

// Reset zeroes all kinematic state, keeping radii.
func (s *Store) Reset() {
	for i := range s.particles {
		r := s.particles[i].Radius
		s.particles[i] = Particle{Radius: r}
	}
}

// Clone returns a deep copy, used by determinism checks and snapshots.
func (s *Store) Clone() *Store {
	ps := make([]Particle, len(s.particles))
	copy(ps, s.particles)
	return &Store{particles: ps, maxRadius: s.maxRadius}
}

package integrators

import (
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

// Verlet advances particles with position Verlet. No velocity is stored:
// it is recovered as Curr-Old on every step, so the two cannot drift apart.
type Verlet struct {
	// Damping removes this fraction of the implicit velocity every substep.
	// Zero disables drag.
	Damping float64
}

func NewVerlet(damping float64) *Verlet {
	return &Verlet{Damping: damping}
}

// Integrate consumes the accumulated acceleration of every live particle
// and leaves it zeroed. It must run exactly once per substep, after forces
// and constraints.
func (v *Verlet) Integrate(store *particles.Store, active int, dt float64) {
	dt2 := dt * dt
	keep := 1 - v.Damping
	ps := store.Live(active)

	for i := range ps {
		p := &ps[i]
		vel := r2.Sub(p.Curr, p.Old)
		if v.Damping != 0 {
			vel = r2.Scale(keep, vel)
		}
		p.Old = p.Curr
		p.Curr = r2.Add(p.Curr, r2.Add(vel, r2.Scale(dt2, p.Acc)))
		p.Acc = r2.Vec{}
	}
}

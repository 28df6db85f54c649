package integrators

import "github.com/san-kum/verletsim/internal/particles"

// Gravity is the force accumulator. Positive G points along +Y, which is
// down in screen coordinates.
type Gravity struct {
	G float64
}

func NewGravity(g float64) *Gravity {
	return &Gravity{G: g}
}

// Apply adds G to the Y accumulator of every live particle.
func (g *Gravity) Apply(store *particles.Store, active int) {
	if g.G == 0 {
		return
	}
	ps := store.Live(active)
	for i := range ps {
		ps[i].Acc.Y += g.G
	}
}

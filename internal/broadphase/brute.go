package broadphase

import "github.com/san-kum/verletsim/internal/particles"

// BruteForce yields every pair of live particles. It is the reference the
// grid is checked against and is fine for a few hundred particles.
type BruteForce struct {
	active int
}

func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

func (b *BruteForce) Name() string { return string(KindBrute) }

func (b *BruteForce) Rebuild(_ *particles.Store, active int) int {
	b.active = active
	return 0
}

func (b *BruteForce) ForEachPair(fn func(i, j int)) {
	for i := 0; i < b.active; i++ {
		for j := i + 1; j < b.active; j++ {
			fn(i, j)
		}
	}
}

package solver

import (
	"sync"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
)

// stripe is the column stride at which grid columns share no particles:
// column x reads and writes columns x-1..x+1 only.
const stripe = 3

// ParallelPairs resolves collisions over a UniformGrid with several
// workers. Columns are processed in three phases; within a phase the
// columns are stripe apart, so no particle is written by two goroutines.
// The result does not depend on the worker count.
type ParallelPairs struct {
	pair    *PairConstraint
	workers int

	mu      sync.Mutex
	buffers [][]int
}

func NewParallelPairs(pair *PairConstraint, workers int) *ParallelPairs {
	return &ParallelPairs{pair: pair, workers: workers}
}

func (p *ParallelPairs) Resolve(store *particles.Store, grid *broadphase.UniformGrid) Contacts {
	cols, _ := grid.Dims()
	var total Contacts

	for phase := 0; phase < stripe; phase++ {
		n := (cols - phase + stripe - 1) / stripe
		if n <= 0 {
			continue
		}
		dynamo.ParallelFor(n, p.workers, func(start, end int) {
			buf := p.getBuffer()
			var local Contacts
			for k := start; k < end; k++ {
				cx := phase + k*stripe
				buf = grid.ForEachPairInColumn(cx, buf, func(i, j int) {
					local.Candidates++
					switch p.pair.resolvePair(store.At(i), store.At(j)) {
					case pairResolved:
						local.Resolved++
					case pairDegenerate:
						local.Degenerate++
					}
				})
			}
			p.putBuffer(buf)

			p.mu.Lock()
			total.add(local)
			p.mu.Unlock()
		})
	}
	return total
}

func (p *ParallelPairs) getBuffer() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.buffers); n > 0 {
		b := p.buffers[n-1]
		p.buffers = p.buffers[:n-1]
		return b
	}
	return make([]int, 0, 64)
}

func (p *ParallelPairs) putBuffer(b []int) {
	p.mu.Lock()
	p.buffers = append(p.buffers, b[:0])
	p.mu.Unlock()
}

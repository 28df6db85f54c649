package solver

import (
	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultResponse is the fraction of the overlap removed per contact, split
// evenly between both particles.
const DefaultResponse = 0.75

// Contacts summarises one collision pass.
type Contacts struct {
	Candidates int
	Resolved   int
	// Degenerate counts coincident pairs that had no defined normal.
	Degenerate int
}

func (c *Contacts) add(o Contacts) {
	c.Candidates += o.Candidates
	c.Resolved += o.Resolved
	c.Degenerate += o.Degenerate
}

// PairConstraint pushes overlapping disks apart along their centre line.
type PairConstraint struct {
	// Response in (0, 1]; each particle moves Response/2 of the overlap.
	Response float64
	// Slop is a dead zone: overlaps at or below it are left alone to keep
	// resting stacks from jittering.
	Slop float64
}

func NewPairConstraint(response, slop float64) *PairConstraint {
	return &PairConstraint{Response: response, Slop: slop}
}

// Resolve runs one pass over the candidate pairs of an already rebuilt
// broadphase.
func (c *PairConstraint) Resolve(store *particles.Store, bp broadphase.Broadphase) Contacts {
	var res Contacts
	bp.ForEachPair(func(i, j int) {
		res.Candidates++
		switch c.resolvePair(store.At(i), store.At(j)) {
		case pairResolved:
			res.Resolved++
		case pairDegenerate:
			res.Degenerate++
		}
	})
	return res
}

type pairOutcome int

const (
	pairApart pairOutcome = iota
	pairResolved
	pairDegenerate
)

func (c *PairConstraint) resolvePair(p1, p2 *particles.Particle) pairOutcome {
	axis := r2.Sub(p1.Curr, p2.Curr)
	reach := p1.Radius + p2.Radius
	dist2 := r2.Norm2(axis)
	if dist2 >= reach*reach {
		return pairApart
	}
	dist := r2.Norm(axis)
	if dist == 0 {
		// no normal to push along; gravity or a neighbour separates them
		return pairDegenerate
	}
	delta := reach - dist
	if delta <= c.Slop {
		return pairApart
	}

	push := r2.Scale(0.5*c.Response*delta/dist, axis)
	p1.Curr = r2.Add(p1.Curr, push)
	p2.Curr = r2.Sub(p2.Curr, push)
	return pairResolved
}

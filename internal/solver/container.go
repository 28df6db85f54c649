package solver

import (
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultContainerResponse is the fraction of normal velocity kept on a
// wall bounce.
const DefaultContainerResponse = 0.75

// ContainerConstraint keeps particles inside a validated container. The
// variant is dispatched once at construction.
type ContainerConstraint struct {
	shape dynamo.Container
	// Response: 0 stops normal motion at the wall, 1 bounces elastically.
	Response float64
	// HardClamp makes the disk a pure positional clamp with no
	// old-position rewrite.
	HardClamp bool

	resolve func(p *particles.Particle)
}

// NewContainerConstraint fails for an unknown or undersized container so
// the error surfaces at setup instead of every substep.
func NewContainerConstraint(shape dynamo.Container, maxRadius, response float64, hardClamp bool) (*ContainerConstraint, error) {
	if err := shape.Validate(maxRadius); err != nil {
		return nil, err
	}
	if response < 0 || response > 1 {
		return nil, dynamo.NewConfigError("container.response", response, dynamo.ErrInvalidConfig)
	}

	c := &ContainerConstraint{shape: shape, Response: response, HardClamp: hardClamp}
	switch shape.Kind {
	case dynamo.ContainerBox:
		c.resolve = c.resolveBox
	case dynamo.ContainerDisk:
		if hardClamp {
			c.resolve = c.clampDisk
		} else {
			c.resolve = c.bounceDisk
		}
	}
	return c, nil
}

func (c *ContainerConstraint) Shape() dynamo.Container { return c.shape }

// Resolve confines every live particle and returns how many touched the
// boundary.
func (c *ContainerConstraint) Resolve(store *particles.Store, active int) int {
	hits := 0
	ps := store.Live(active)
	for i := range ps {
		before := ps[i].Curr
		c.resolve(&ps[i])
		if ps[i].Curr != before {
			hits++
		}
	}
	return hits
}

func (c *ContainerConstraint) resolveBox(p *particles.Particle) {
	limit := c.shape.HalfSize - c.shape.BorderWidth - p.Radius
	p.Curr.X, p.Old.X = bounceAxis(p.Curr.X, p.Old.X, c.shape.Center.X-limit, c.shape.Center.X+limit, c.Response)
	p.Curr.Y, p.Old.Y = bounceAxis(p.Curr.Y, p.Old.Y, c.shape.Center.Y-limit, c.shape.Center.Y+limit, c.Response)
}

// bounceAxis clamps one coordinate into [lo, hi] and rewrites its old value
// so the implicit velocity is reversed and scaled by response.
func bounceAxis(curr, old, lo, hi, response float64) (float64, float64) {
	switch {
	case curr < lo:
		disp := curr - old
		return lo, lo + disp*response
	case curr > hi:
		disp := curr - old
		return hi, hi + disp*response
	}
	return curr, old
}

func (c *ContainerConstraint) diskOverreach(p *particles.Particle) (n r2.Vec, limit float64, ok bool) {
	radial := r2.Sub(p.Curr, c.shape.Center)
	dist := r2.Norm(radial)
	limit = c.shape.Radius - p.Radius
	if dist <= limit || dist == 0 {
		return r2.Vec{}, 0, false
	}
	return r2.Scale(1/dist, radial), limit, true
}

func (c *ContainerConstraint) clampDisk(p *particles.Particle) {
	n, limit, ok := c.diskOverreach(p)
	if !ok {
		return
	}
	p.Curr = r2.Add(c.shape.Center, r2.Scale(limit, n))
}

// bounceDisk applies the box policy along the wall normal: the outward
// normal component of the displacement is reversed and scaled by Response,
// the tangential component is kept.
func (c *ContainerConstraint) bounceDisk(p *particles.Particle) {
	n, limit, ok := c.diskOverreach(p)
	if !ok {
		return
	}
	disp := r2.Sub(p.Curr, p.Old)
	vn := r2.Dot(disp, n)
	tangential := r2.Sub(disp, r2.Scale(vn, n))

	p.Curr = r2.Add(c.shape.Center, r2.Scale(limit, n))
	if vn > 0 {
		vn = -vn * c.Response
	}
	after := r2.Add(tangential, r2.Scale(vn, n))
	p.Old = r2.Sub(p.Curr, after)
}

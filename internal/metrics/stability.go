package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

// Containment is the fraction of samples in which every live particle was
// inside the container, allowing tol of slack.
type Containment struct {
	name       string
	shape      dynamo.Container
	tol        float64
	violations int
	escaped    int
	samples    int
}

func NewContainment(shape dynamo.Container, tol float64) *Containment {
	return &Containment{
		name:  "containment",
		shape: shape,
		tol:   tol,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(store *particles.Store, active int, _ float64) {
	c.samples++
	bad := 0
	for i := 0; i < active; i++ {
		p := store.At(i)
		if !c.shape.Contains(p.Curr, p.Radius, c.tol) {
			bad++
		}
	}
	if bad > 0 {
		c.violations++
		c.escaped = max(c.escaped, bad)
	}
}

// Escaped is the largest number of particles outside in any sample.
func (c *Containment) Escaped() int {
	return c.escaped
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.escaped = 0
	c.samples = 0
}

// Penetration is the deepest pair overlap seen over the run, the residual
// the relaxation solver left behind.
type Penetration struct {
	name string
	bp   broadphase.Broadphase
	max  float64
	st   *particles.Store
}

// NewPenetration sizes its own broadphase so it never disturbs the
// simulator's grid.
func NewPenetration(shape dynamo.Container, maxRadius float64) (*Penetration, error) {
	bp, err := broadphase.New(broadphase.KindGrid, shape, maxRadius, 0)
	if err != nil {
		return nil, err
	}
	return &Penetration{name: "max_penetration", bp: bp}, nil
}

func (p *Penetration) Name() string {
	return p.name
}

func (p *Penetration) Observe(store *particles.Store, active int, _ float64) {
	p.bp.Rebuild(store, active)
	p.st = store
	p.bp.ForEachPair(p.measure)
}

func (p *Penetration) measure(i, j int) {
	a, b := p.st.At(i), p.st.At(j)
	overlap := a.Radius + b.Radius - r2.Norm(r2.Sub(a.Curr, b.Curr))
	p.max = math.Max(p.max, overlap)
}

func (p *Penetration) Value() float64 {
	return p.max
}

func (p *Penetration) Reset() {
	p.max = 0
}

package particles

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Pattern selects how Instantiate lays particles out before they are
// activated.
type Pattern int

const (
	PatternPoint Pattern = iota
	PatternAlternating
	PatternStream
	PatternLattice
	PatternRandom
)

var patternNames = map[string]Pattern{
	"point":       PatternPoint,
	"alternating": PatternAlternating,
	"stream":      PatternStream,
	"lattice":     PatternLattice,
	"random":      PatternRandom,
}

func (p Pattern) String() string {
	for name, v := range patternNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

func ParsePattern(s string) (Pattern, error) {
	p, ok := patternNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, dynamo.NewConfigError("particles.pattern", s, dynamo.ErrInvalidConfig)
	}
	return p, nil
}

// SpawnSpec parameterises Instantiate.
type SpawnSpec struct {
	Pattern Pattern
	Origin  r2.Vec
	// Spread is the horizontal offset for alternating spawns and the half
	// extent of the random and lattice regions.
	Spread float64
	Seed   int64
}

const streamWidth = 7

// Instantiate lays out every particle in the store, live or not. The host
// then grows the active count to release them.
func Instantiate(s *Store, spec SpawnSpec) {
	rng := rand.New(rand.NewSource(spec.Seed))
	n := s.Cap()
	o := spec.Origin

	for i := 0; i < n; i++ {
		var curr, old r2.Vec
		switch spec.Pattern {
		case PatternAlternating:
			curr = o
			if i%2 == 0 {
				curr.X += spec.Spread
			} else {
				curr.X -= spec.Spread
			}
			old = curr
		case PatternStream:
			curr = r2.Vec{X: o.X + float64(i%streamWidth-streamWidth/2), Y: o.Y + 4}
			// the old position trails slightly so the stream leaves with a
			// velocity towards the origin corner
			old = r2.Vec{X: curr.X * 0.995, Y: curr.Y * 0.998}
		case PatternLattice:
			curr = latticeSlot(i, n, o, spec.Spread, s.particles[i].Radius)
			old = curr
		case PatternRandom:
			curr = r2.Vec{
				X: o.X + (rng.Float64()*2-1)*spec.Spread,
				Y: o.Y + (rng.Float64()*2-1)*spec.Spread,
			}
			old = curr
		default:
			curr = o
			old = o
		}
		s.Place(i, curr, old)
	}
}

func latticeSlot(i, n int, o r2.Vec, spread, radius float64) r2.Vec {
	step := 2 * radius
	cols := int(math.Sqrt(float64(n)))
	if spread > 0 {
		if c := int(2 * spread / step); c > 0 && c < cols {
			cols = c
		}
	}
	if cols < 1 {
		cols = 1
	}
	row, col := i/cols, i%cols
	width := float64(cols-1) * step
	return r2.Vec{X: o.X - width/2 + float64(col)*step, Y: o.Y + float64(row)*step}
}

package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

func newStore(t *testing.T, n int) *particles.Store {
	t.Helper()
	s, err := particles.New(n, 1)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestVerletFreeFlight(t *testing.T) {
	s := newStore(t, 1)
	s.Place(0, r2.Vec{}, r2.Vec{X: -1})

	NewVerlet(0).Integrate(s, 1, 1)

	p := s.At(0)
	if p.Curr != (r2.Vec{X: 1}) {
		t.Errorf("curr = %v, want {1 0}", p.Curr)
	}
	if p.Old != (r2.Vec{}) {
		t.Errorf("old = %v, want {0 0}", p.Old)
	}
}

func TestVerletConstantVelocity(t *testing.T) {
	s := newStore(t, 1)
	s.Place(0, r2.Vec{X: 5, Y: 5}, r2.Vec{X: 4.5, Y: 5.25})
	integ := NewVerlet(0)
	want := s.At(0).Velocity()

	for i := 0; i < 100; i++ {
		integ.Integrate(s, 1, 0.01)
		got := s.At(0).Velocity()
		if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
			t.Fatalf("step %d: velocity %v drifted from %v", i, got, want)
		}
	}
}

func TestGravityIntegration(t *testing.T) {
	const g = 1000.0
	s := newStore(t, 1)
	start := r2.Vec{Y: 100}
	s.Place(0, start, start)

	NewGravity(g).Apply(s, 1)
	NewVerlet(0).Integrate(s, 1, 1)

	p := s.At(0)
	if p.Curr != (r2.Vec{Y: 100 + g}) {
		t.Errorf("curr = %v, want {0 %v}", p.Curr, 100+g)
	}
	if p.Acc != (r2.Vec{}) {
		t.Errorf("acceleration not cleared: %v", p.Acc)
	}
}

func TestGravityScalesWithDtSquared(t *testing.T) {
	s := newStore(t, 1)
	NewGravity(10).Apply(s, 1)
	NewVerlet(0).Integrate(s, 1, 0.5)

	if got := s.At(0).Curr.Y; got != 2.5 {
		t.Errorf("y = %v, want 2.5", got)
	}
}

func TestGravityRespectsActiveCount(t *testing.T) {
	s := newStore(t, 3)
	NewGravity(9.81).Apply(s, 2)

	if s.At(1).Acc.Y != 9.81 {
		t.Error("live particle should be accelerated")
	}
	if s.At(2).Acc.Y != 0 {
		t.Error("inert particle must not be touched")
	}
}

func TestVerletDamping(t *testing.T) {
	s := newStore(t, 1)
	s.Place(0, r2.Vec{X: 10}, r2.Vec{})

	NewVerlet(0.5).Integrate(s, 1, 1)

	if got := s.At(0).Curr.X; got != 15 {
		t.Errorf("x = %v, want 15", got)
	}
}

func TestVerletInertSuffixUntouched(t *testing.T) {
	s := newStore(t, 2)
	s.Place(1, r2.Vec{X: 3}, r2.Vec{X: 1})
	before := *s.At(1)

	NewVerlet(0).Integrate(s, 1, 1)

	if *s.At(1) != before {
		t.Errorf("inert particle changed: %+v -> %+v", before, *s.At(1))
	}
}

package particles

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		radius   float64
		wantErr  error
	}{
		{"ok", 10, 1, nil},
		{"zero capacity", 0, 1, dynamo.ErrInvalidCapacity},
		{"negative capacity", -5, 1, dynamo.ErrInvalidCapacity},
		{"huge capacity", MaxCapacity + 1, 1, dynamo.ErrResourceExhausted},
		{"zero radius", 10, 0, dynamo.ErrNonPositiveRadius},
		{"negative radius", 10, -2, dynamo.ErrNonPositiveRadius},
		{"nan radius", 10, math.NaN(), dynamo.ErrNonPositiveRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.capacity, tt.radius)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if s.Cap() != tt.capacity {
					t.Errorf("Cap() = %d, want %d", s.Cap(), tt.capacity)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCheckActive(t *testing.T) {
	s, _ := New(4, 1)
	for _, n := range []int{0, 1, 4} {
		if err := s.CheckActive(n); err != nil {
			t.Errorf("CheckActive(%d) = %v", n, err)
		}
	}
	for _, n := range []int{-1, 5} {
		if err := s.CheckActive(n); !errors.Is(err, dynamo.ErrActiveCount) {
			t.Errorf("CheckActive(%d) = %v, want ErrActiveCount", n, err)
		}
	}
}

func TestVelocityEstimate(t *testing.T) {
	s, _ := New(2, 1)
	s.Place(0, r2.Vec{X: 3, Y: 4}, r2.Vec{X: 1, Y: 1})

	v := s.VelocityEstimate(0, 0.5)
	if v != (r2.Vec{X: 4, Y: 6}) {
		t.Errorf("VelocityEstimate = %v, want {4 6}", v)
	}
	if v := s.VelocityEstimate(0, 0); v != (r2.Vec{}) {
		t.Errorf("zero dt should give zero velocity, got %v", v)
	}
}

func TestPositionsAndLive(t *testing.T) {
	s, _ := New(3, 1)
	for i := 0; i < 3; i++ {
		p := r2.Vec{X: float64(i), Y: float64(-i)}
		s.Place(i, p, p)
	}

	pos := s.Positions(2, nil)
	if len(pos) != 2 || pos[1] != (r2.Vec{X: 1, Y: -1}) {
		t.Errorf("Positions = %v", pos)
	}
	if len(s.Live(3)) != 3 {
		t.Error("Live should return the full prefix")
	}
}

func TestSetRadiusTracksMax(t *testing.T) {
	s, _ := New(3, 1)
	if err := s.SetRadius(1, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRadius(2, 2); err != nil {
		t.Fatal(err)
	}
	if s.MaxRadius() != 4 {
		t.Errorf("MaxRadius = %v, want 4", s.MaxRadius())
	}
	if err := s.SetRadius(0, 0); !errors.Is(err, dynamo.ErrNonPositiveRadius) {
		t.Errorf("expected ErrNonPositiveRadius, got %v", err)
	}
}

func TestResetAndClone(t *testing.T) {
	s, _ := New(2, 3)
	s.Place(0, r2.Vec{X: 1}, r2.Vec{X: 2})
	c := s.Clone()
	s.Reset()

	if s.At(0).Curr != (r2.Vec{}) || s.At(0).Radius != 3 {
		t.Errorf("Reset left %+v", *s.At(0))
	}
	if c.At(0).Curr != (r2.Vec{X: 1}) {
		t.Error("Clone should be independent of the original")
	}
}

func TestInstantiatePatterns(t *testing.T) {
	origin := r2.Vec{X: 100, Y: 50}

	t.Run("point", func(t *testing.T) {
		s, _ := New(5, 1)
		Instantiate(s, SpawnSpec{Pattern: PatternPoint, Origin: origin})
		for _, p := range s.Live(5) {
			if p.Curr != origin || p.Old != origin {
				t.Fatalf("got %+v", p)
			}
		}
	})

	t.Run("alternating", func(t *testing.T) {
		s, _ := New(4, 1)
		Instantiate(s, SpawnSpec{Pattern: PatternAlternating, Origin: origin, Spread: 10})
		if s.At(0).Curr.X != 110 || s.At(1).Curr.X != 90 {
			t.Errorf("got %v %v", s.At(0).Curr, s.At(1).Curr)
		}
	})

	t.Run("stream", func(t *testing.T) {
		s, _ := New(8, 1)
		Instantiate(s, SpawnSpec{Pattern: PatternStream, Origin: origin})
		if s.At(0).Curr.X != 97 || s.At(7).Curr.X != 97 {
			t.Errorf("stream should repeat every 7: %v %v", s.At(0).Curr, s.At(7).Curr)
		}
		if s.At(3).Curr != (r2.Vec{X: 100, Y: 54}) {
			t.Errorf("centre slot = %v", s.At(3).Curr)
		}
		if s.At(0).Velocity() == (r2.Vec{}) {
			t.Error("stream particles should start moving")
		}
	})

	t.Run("lattice", func(t *testing.T) {
		s, _ := New(9, 1)
		Instantiate(s, SpawnSpec{Pattern: PatternLattice, Origin: origin})
		if d := r2.Norm(r2.Sub(s.At(0).Curr, s.At(1).Curr)); d != 2 {
			t.Errorf("neighbours should be one diameter apart, got %v", d)
		}
	})

	t.Run("random is seeded", func(t *testing.T) {
		a, _ := New(16, 1)
		b, _ := New(16, 1)
		spec := SpawnSpec{Pattern: PatternRandom, Origin: origin, Spread: 20, Seed: 7}
		Instantiate(a, spec)
		Instantiate(b, spec)
		for i := 0; i < 16; i++ {
			if a.At(i).Curr != b.At(i).Curr {
				t.Fatalf("particle %d differs between identical seeds", i)
			}
			if math.Abs(a.At(i).Curr.X-origin.X) > 20 {
				t.Fatalf("particle %d outside spread", i)
			}
		}
	})
}

func TestParsePattern(t *testing.T) {
	if p, err := ParsePattern("Stream"); err != nil || p != PatternStream {
		t.Errorf("ParsePattern(Stream) = %v, %v", p, err)
	}
	if _, err := ParsePattern("spiral"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

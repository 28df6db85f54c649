package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/sim"
)

func smallScene() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Particles.Capacity = 30
	cfg.Run.Frames = 10
	cfg.Run.SpawnDelay = 0
	cfg.Run.InitialActive = 0
	return cfg
}

func withEnergy(r *sim.Runner, _ *config.Config) error {
	r.AddMetric(metrics.NewKineticEnergy())
	return nil
}

func TestNewGridSearchMismatch(t *testing.T) {
	if _, err := NewGridSearch([]string{"physics.gravity"}, nil); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewGridSearch([]string{"physics.gravity"}, [][]float64{{}}); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty range, got %v", err)
	}
}

func TestSearchSortsAndKeepsFailures(t *testing.T) {
	g, err := NewGridSearch(
		[]string{"physics.substeps", "physics.gravity"},
		[][]float64{{0, 4}, {0, 1000}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 4 {
		t.Fatalf("expected 4 trials, got %d", g.Size())
	}

	trials, err := g.Search(context.Background(), smallScene(), withEnergy, "kinetic_energy")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(trials))
	}

	for i := 1; i < len(trials); i++ {
		if trials[i].Value < trials[i-1].Value {
			t.Errorf("trials not sorted at %d: %v < %v", i, trials[i].Value, trials[i-1].Value)
		}
	}
	for _, tr := range trials[:2] {
		if tr.Err != nil {
			t.Errorf("unexpected error for %v: %v", tr.Params, tr.Err)
		}
		if tr.Params["physics.substeps"] != 4 {
			t.Errorf("expected a valid trial first, got %v", tr.Params)
		}
	}
	for _, tr := range trials[2:] {
		if !errors.Is(tr.Err, dynamo.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for %v, got %v", tr.Params, tr.Err)
		}
		if !math.IsInf(tr.Value, 1) {
			t.Errorf("failed trial should score +Inf, got %v", tr.Value)
		}
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	g, err := NewGridSearch([]string{"physics.gravity"}, [][]float64{{500}})
	if err != nil {
		t.Fatal(err)
	}
	trials, err := g.Search(context.Background(), smallScene(), nil, "kinetic_energy")
	if err != nil {
		t.Fatal(err)
	}
	if trials[0].Err == nil {
		t.Error("expected error for a metric nobody records")
	}
}

func TestSearchDoesNotMutateBase(t *testing.T) {
	base := smallScene()
	g, err := NewGridSearch([]string{"physics.gravity"}, [][]float64{{123}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Search(context.Background(), base, withEnergy, "kinetic_energy"); err != nil {
		t.Fatal(err)
	}
	if base.Physics.Gravity != config.DefaultGravity {
		t.Errorf("base gravity changed to %v", base.Physics.Gravity)
	}
}

func TestSearchCancelled(t *testing.T) {
	g, err := NewGridSearch([]string{"physics.gravity"}, [][]float64{{0, 1000}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trials, err := g.Search(ctx, smallScene(), withEnergy, "kinetic_energy")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(trials) != 0 {
		t.Errorf("expected no trials, got %d", len(trials))
	}
}

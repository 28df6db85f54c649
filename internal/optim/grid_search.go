// Package optim searches scene parameters for the run that minimises a
// metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/sim"
)

// Setup attaches metrics to a freshly built runner.
type Setup func(r *sim.Runner, cfg *config.Config) error

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d params, %d ranges", dynamo.ErrInvalidConfig, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, dynamo.NewConfigError(params[i], r, dynamo.ErrInvalidConfig)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of trials Search will run.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base once per point of the grid and returns every trial,
// best first. A trial that fails keeps its error and sorts last.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, setup Setup, metricName string) ([]Trial, error) {
	trials := make([]Trial, 0, g.Size())
	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		trials = append(trials, g.trial(ctx, base, params, setup, metricName))
	})
	if err != nil {
		return trials, err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].Value < trials[j].Value
	})
	return trials, nil
}

func (g *GridSearch) trial(ctx context.Context, base *config.Config, params map[string]float64, setup Setup, metricName string) Trial {
	t := Trial{Params: params, Value: math.Inf(1)}

	cfg := *base
	for name, v := range params {
		if t.Err = cfg.Set(name, v); t.Err != nil {
			return t
		}
	}
	if t.Err = cfg.Validate(); t.Err != nil {
		return t
	}

	r, err := cfg.Build()
	if err != nil {
		t.Err = err
		return t
	}
	if setup != nil {
		if t.Err = setup(r, &cfg); t.Err != nil {
			return t
		}
	}

	result, err := r.Run(ctx)
	if err != nil {
		t.Err = err
		return t
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		t.Err = fmt.Errorf("unknown metric: %s", metricName)
		return t
	}
	t.Value = val
	return t
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

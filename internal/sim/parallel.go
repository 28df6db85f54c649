package sim

import (
	"context"
	"sync"
)

// RunnerFactory builds an independent runner for one ensemble member.
type RunnerFactory func(seed int64) (*Runner, error)

// Ensemble runs independent simulations concurrently, one per seed. Each
// member owns its own arena, so nothing is shared between goroutines.
type Ensemble struct {
	build     RunnerFactory
	numRuns   int
	seedStart int64
}

func NewEnsemble(build RunnerFactory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			r, err := e.build(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = r.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Package broadphase narrows the set of particle pairs that can overlap.
//
// Every strategy is rebuilt from scratch each substep and then yields each
// candidate unordered pair exactly once, lower index first. Resolving a pair
// twice in one substep would double the positional correction.
package broadphase

import (
	"fmt"
	"strings"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
)

type Broadphase interface {
	Name() string
	// Rebuild indexes the live prefix and returns how many particles could
	// not be bucketed this substep.
	Rebuild(store *particles.Store, active int) int
	// ForEachPair calls fn(i, j) with i < j for every candidate pair.
	ForEachPair(fn func(i, j int))
}

type Kind string

const (
	KindGrid  Kind = "grid"
	KindBrute Kind = "brute"
)

// ParseKind accepts the config spelling of a strategy.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGrid, KindBrute:
		return k, nil
	case "":
		return KindGrid, nil
	}
	return "", dynamo.NewConfigError("physics.broadphase", s, dynamo.ErrInvalidConfig)
}

// New builds the strategy for a container and the largest particle radius.
// cellCapacity bounds grid buckets; zero lets them grow.
func New(kind Kind, container dynamo.Container, maxRadius float64, cellCapacity int) (Broadphase, error) {
	switch kind {
	case KindGrid, "":
		return NewGridForContainer(container, maxRadius, cellCapacity)
	case KindBrute:
		return NewBruteForce(), nil
	}
	return nil, fmt.Errorf("unknown broadphase %q: %w", kind, dynamo.ErrInvalidConfig)
}

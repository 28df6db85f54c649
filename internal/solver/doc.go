// Package solver resolves the two constraint kinds of the simulation:
// pairwise de-penetration and container confinement.
//
// Both are single-pass positional corrections. Nothing is iterated to
// convergence; stability comes from running the full cycle several times
// per frame.
package solver

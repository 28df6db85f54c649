// Package dynamo provides the shared primitives of the particle simulator.
//
// The package defines the types every other simulation package agrees on:
//
//   - [Container]: the boundary shape particles are confined to
//   - [ContainerKind]: the tagged variant discriminating box and disk shapes
//   - the error taxonomy ([ErrInvalidConfig], [ErrResourceExhausted], ...)
//   - [ParallelFor]: chunked fan-out used by the parallel pair solver
//
// Vectors are gonum's [r2.Vec]; no package in the module defines its own.
//
// # Example
//
//	box := dynamo.NewBox(r2.Vec{X: 640, Y: 360}, 300, 10)
//	if err := box.Validate(25); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Container values are immutable once validated and may be shared freely.
// Nothing else in this package holds state.
package dynamo

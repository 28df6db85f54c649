package sim

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// PositionPool recycles read-back buffers for renderers that copy positions
// every frame.
type PositionPool struct {
	pool sync.Pool
	size int
}

func NewPositionPool(capacity int) *PositionPool {
	return &PositionPool{
		size: capacity,
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]r2.Vec, 0, capacity)
				return &buf
			},
		},
	}
}

// Get returns an empty buffer with room for the pool's capacity.
func (p *PositionPool) Get() []r2.Vec {
	return (*p.pool.Get().(*[]r2.Vec))[:0]
}

func (p *PositionPool) Put(buf []r2.Vec) {
	if cap(buf) >= p.size {
		buf = buf[:0]
		p.pool.Put(&buf)
	}
}

// Snapshot copies the live positions of s into a pooled buffer.
func (p *PositionPool) Snapshot(s *Simulator, active int) []r2.Vec {
	return s.Positions(active, p.Get())
}

package broadphase

import (
	"math"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

// MaxCells bounds the number of grid cells a single grid may allocate.
const MaxCells = 1 << 24

// UniformGrid buckets particle indices into square cells of side twice the
// largest radius, so every overlapping pair lies within one 3x3 block.
// Cells hold indices only; membership is rebuilt every substep.
type UniformGrid struct {
	origin   r2.Vec
	cellSize float64
	cols     int
	rows     int
	capacity int
	cells    [][]int

	scratch []int
}

// NewUniformGrid covers the rectangle [origin, origin+size]. capacity bounds
// each bucket; zero means unbounded.
func NewUniformGrid(origin, size r2.Vec, cellSize float64, capacity int) (*UniformGrid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, dynamo.NewConfigError("grid.cell_size", cellSize, dynamo.ErrNonPositiveRadius)
	}
	if !(size.X > 0) || !(size.Y > 0) {
		return nil, dynamo.NewConfigError("grid.size", size, dynamo.ErrInvalidConfig)
	}
	if capacity < 0 {
		return nil, dynamo.NewConfigError("physics.cell_capacity", capacity, dynamo.ErrInvalidConfig)
	}

	fc := math.Ceil(size.X / cellSize)
	fr := math.Ceil(size.Y / cellSize)
	if fc*fr > MaxCells {
		return nil, dynamo.NewConfigError("grid.cells", fc*fr, dynamo.ErrResourceExhausted)
	}
	cols, rows := max(int(fc), 1), max(int(fr), 1)

	initial := capacity
	if initial == 0 {
		initial = 4
	}
	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, initial)
	}

	return &UniformGrid{
		origin:   origin,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		capacity: capacity,
		cells:    cells,
		scratch:  make([]int, 0, 9*initial),
	}, nil
}

// NewGridForContainer sizes a grid to the container's bounding square with
// cells of side 2*maxRadius.
func NewGridForContainer(c dynamo.Container, maxRadius float64, capacity int) (*UniformGrid, error) {
	lo, hi := c.Bounds()
	return NewUniformGrid(lo, r2.Sub(hi, lo), 2*maxRadius, capacity)
}

func (g *UniformGrid) Name() string { return string(KindGrid) }

func (g *UniformGrid) Dims() (cols, rows int) { return g.cols, g.rows }

func (g *UniformGrid) CellSize() float64 { return g.cellSize }

// CellOf returns the cell containing p. Points outside the domain are
// clamped onto the border cells rather than dropped.
func (g *UniformGrid) CellOf(p r2.Vec) (cx, cy int) {
	cx = clampCell(math.Floor((p.X-g.origin.X)/g.cellSize), g.cols)
	cy = clampCell(math.Floor((p.Y-g.origin.Y)/g.cellSize), g.rows)
	return cx, cy
}

func clampCell(f float64, n int) int {
	// NaN compares false everywhere and lands in cell 0
	if !(f >= 0) {
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}

// Rebuild clears every bucket and re-inserts the live prefix. Returns the
// number of particles dropped because their bucket was full.
func (g *UniformGrid) Rebuild(store *particles.Store, active int) int {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}

	overflow := 0
	ps := store.Live(active)
	for i := range ps {
		cx, cy := g.CellOf(ps[i].Curr)
		idx := cy*g.cols + cx
		if g.capacity > 0 && len(g.cells[idx]) >= g.capacity {
			overflow++
			continue
		}
		g.cells[idx] = append(g.cells[idx], i)
	}
	return overflow
}

// Cell returns the bucket at (cx, cy). The slice is owned by the grid.
func (g *UniformGrid) Cell(cx, cy int) []int {
	if cx < 0 || cx >= g.cols || cy < 0 || cy >= g.rows {
		return nil
	}
	return g.cells[cy*g.cols+cx]
}

// Neighbors appends every index in the 3x3 block centred on (cx, cy) to
// dst, skipping cells outside the grid.
func (g *UniformGrid) Neighbors(cx, cy int, dst []int) []int {
	for dy := -1; dy <= 1; dy++ {
		ny := cy + dy
		if ny < 0 || ny >= g.rows {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := cx + dx
			if nx < 0 || nx >= g.cols {
				continue
			}
			dst = append(dst, g.cells[ny*g.cols+nx]...)
		}
	}
	return dst
}

// ForEachPair scans cell by cell. A pair is emitted from the lower index's
// cell only, which is what makes each unordered pair appear once.
func (g *UniformGrid) ForEachPair(fn func(i, j int)) {
	for cx := 0; cx < g.cols; cx++ {
		g.scratch = g.forColumn(cx, g.scratch, fn)
	}
}

// ForEachPairInColumn emits the pairs whose lower index lives in column cx.
// Two columns at least three apart touch disjoint particles, which is what
// the parallel solver relies on. buf is scratch space and is returned for
// reuse.
func (g *UniformGrid) ForEachPairInColumn(cx int, buf []int, fn func(i, j int)) []int {
	return g.forColumn(cx, buf, fn)
}

func (g *UniformGrid) forColumn(cx int, buf []int, fn func(i, j int)) []int {
	for cy := 0; cy < g.rows; cy++ {
		cell := g.cells[cy*g.cols+cx]
		if len(cell) == 0 {
			continue
		}
		buf = g.Neighbors(cx, cy, buf[:0])
		for _, i := range cell {
			for _, j := range buf {
				if j > i {
					fn(i, j)
				}
			}
		}
	}
	return buf
}

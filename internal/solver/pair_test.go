package solver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/broadphase"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/solver"
)

func separation(s *particles.Store, i, j int) float64 {
	return r2.Norm(r2.Sub(s.At(i).Curr, s.At(j).Curr))
}

func maxOverlap(s *particles.Store, active int) float64 {
	worst := 0.0
	for i := 0; i < active; i++ {
		for j := i + 1; j < active; j++ {
			a, b := s.At(i), s.At(j)
			if d := a.Radius + b.Radius - separation(s, i, j); d > worst {
				worst = d
			}
		}
	}
	return worst
}

var _ = Describe("PairConstraint", func() {
	var (
		store *particles.Store
		grid  *broadphase.UniformGrid
		pair  *solver.PairConstraint
	)

	place := func(i int, x, y float64) {
		p := r2.Vec{X: x, Y: y}
		store.Place(i, p, p)
	}

	BeforeEach(func() {
		var err error
		store, err = particles.New(4, 5)
		Expect(err).NotTo(HaveOccurred())
		grid, err = broadphase.NewGridForContainer(dynamo.NewBox(r2.Vec{X: 50, Y: 50}, 50, 0), store.MaxRadius(), 0)
		Expect(err).NotTo(HaveOccurred())
		pair = solver.NewPairConstraint(solver.DefaultResponse, 0)
	})

	It("applies a single correction per pair per pass", func() {
		place(0, 50, 50)
		place(1, 54, 50)
		grid.Rebuild(store, 2)

		res := pair.Resolve(store, grid)

		// overlap 6, each side moves 0.5*0.75*6
		Expect(res.Resolved).To(Equal(1))
		Expect(res.Candidates).To(Equal(1))
		Expect(store.At(0).Curr.X).To(BeNumerically("~", 47.75, 1e-12))
		Expect(store.At(1).Curr.X).To(BeNumerically("~", 56.25, 1e-12))
		Expect(separation(store, 0, 1)).To(BeNumerically("~", 4+0.75*6, 1e-12))
	})

	It("matches the brute-force strategy on the same input", func() {
		place(0, 50, 50)
		place(1, 54, 50)
		brute := broadphase.NewBruteForce()
		brute.Rebuild(store, 2)

		pair.Resolve(store, brute)

		Expect(separation(store, 0, 1)).To(BeNumerically("~", 8.5, 1e-12))
	})

	It("monotonically reduces overlap at rest down to the dead zone", func() {
		pair = solver.NewPairConstraint(solver.DefaultResponse, 0.01)
		place(0, 50, 50)
		place(1, 51, 50.5)

		prev := maxOverlap(store, 2)
		for k := 0; k < 50; k++ {
			grid.Rebuild(store, 2)
			pair.Resolve(store, grid)
			cur := maxOverlap(store, 2)
			Expect(cur).To(BeNumerically("<=", prev))
			prev = cur
		}
		Expect(prev).To(BeNumerically("<=", 0.01))
	})

	It("keeps the momentum centre fixed", func() {
		place(0, 50, 50)
		place(1, 53, 54)
		grid.Rebuild(store, 2)
		before := r2.Add(store.At(0).Curr, store.At(1).Curr)

		pair.Resolve(store, grid)

		after := r2.Add(store.At(0).Curr, store.At(1).Curr)
		Expect(after.X).To(BeNumerically("~", before.X, 1e-12))
		Expect(after.Y).To(BeNumerically("~", before.Y, 1e-12))
	})

	It("skips coincident centres without producing NaN", func() {
		place(0, 50, 50)
		place(1, 50, 50)
		grid.Rebuild(store, 2)

		res := pair.Resolve(store, grid)

		Expect(res.Degenerate).To(Equal(1))
		Expect(res.Resolved).To(Equal(0))
		Expect(store.At(0).Curr).To(Equal(r2.Vec{X: 50, Y: 50}))
		Expect(store.At(1).Curr).To(Equal(r2.Vec{X: 50, Y: 50}))
	})

	It("leaves separated particles alone", func() {
		place(0, 20, 20)
		place(1, 30.5, 20)
		grid.Rebuild(store, 2)

		res := pair.Resolve(store, grid)

		Expect(res.Resolved).To(BeZero())
		Expect(store.At(1).Curr.X).To(Equal(30.5))
	})

	It("ignores the inert suffix", func() {
		place(0, 50, 50)
		place(1, 52, 50)
		place(2, 51, 50)
		grid.Rebuild(store, 2)

		pair.Resolve(store, grid)

		Expect(store.At(2).Curr).To(Equal(r2.Vec{X: 51, Y: 50}))
	})
})

var _ = Describe("ParallelPairs", func() {
	It("produces the same result for any worker count", func() {
		run := func(workers int) *particles.Store {
			s, err := particles.New(600, 2)
			Expect(err).NotTo(HaveOccurred())
			particles.Instantiate(s, particles.SpawnSpec{
				Pattern: particles.PatternRandom,
				Origin:  r2.Vec{X: 100, Y: 100},
				Spread:  90,
				Seed:    11,
			})
			grid, err := broadphase.NewGridForContainer(dynamo.NewDisk(r2.Vec{X: 100, Y: 100}, 100), 2, 0)
			Expect(err).NotTo(HaveOccurred())

			pp := solver.NewParallelPairs(solver.NewPairConstraint(solver.DefaultResponse, 0), workers)
			for k := 0; k < 8; k++ {
				grid.Rebuild(s, 600)
				pp.Resolve(s, grid)
			}
			return s
		}

		serial := run(1)
		wide := run(8)
		for i := 0; i < 600; i++ {
			Expect(wide.At(i).Curr).To(Equal(serial.At(i).Curr), "particle %d", i)
		}
	})

	It("reduces overlap like the serial pass", func() {
		s, _ := particles.New(300, 2)
		particles.Instantiate(s, particles.SpawnSpec{Pattern: particles.PatternRandom, Origin: r2.Vec{X: 50, Y: 50}, Spread: 45, Seed: 5})
		grid, _ := broadphase.NewGridForContainer(dynamo.NewBox(r2.Vec{X: 50, Y: 50}, 50, 0), 2, 0)
		before := maxOverlap(s, 300)

		pp := solver.NewParallelPairs(solver.NewPairConstraint(solver.DefaultResponse, 0), 4)
		var res solver.Contacts
		for k := 0; k < 20; k++ {
			grid.Rebuild(s, 300)
			res = pp.Resolve(s, grid)
		}

		Expect(res.Candidates).To(BeNumerically(">", 0))
		Expect(maxOverlap(s, 300)).To(BeNumerically("<", before))
	})
})

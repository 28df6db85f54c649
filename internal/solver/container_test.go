package solver_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/solver"
)

var _ = Describe("ContainerConstraint", func() {
	center := r2.Vec{X: 100, Y: 100}

	newStore := func(n int) *particles.Store {
		s, err := particles.New(n, 5)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	Context("construction", func() {
		It("rejects an unknown variant at setup", func() {
			_, err := solver.NewContainerConstraint(dynamo.Container{Kind: dynamo.ContainerKind(9)}, 1, 0.5, false)
			Expect(err).To(MatchError(dynamo.ErrUnknownContainer))
		})

		It("rejects a response outside [0, 1]", func() {
			_, err := solver.NewContainerConstraint(dynamo.NewDisk(center, 50), 5, 1.5, false)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects a container smaller than a particle", func() {
			_, err := solver.NewContainerConstraint(dynamo.NewBox(center, 10, 6), 5, 0.5, false)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})
	})

	Context("box", func() {
		var c *solver.ContainerConstraint

		BeforeEach(func() {
			var err error
			c, err = solver.NewContainerConstraint(dynamo.NewBox(center, 50, 5), 5, 0.75, false)
			Expect(err).NotTo(HaveOccurred())
		})

		It("clamps to the inner wall and reverses the scaled velocity", func() {
			s := newStore(1)
			// inner wall on +x is at 100+50-5-5 = 140
			s.Place(0, r2.Vec{X: 144, Y: 100}, r2.Vec{X: 140, Y: 100})

			hits := c.Resolve(s, 1)

			p := s.At(0)
			Expect(hits).To(Equal(1))
			Expect(p.Curr.X).To(Equal(140.0))
			Expect(p.Old.X).To(Equal(143.0))
			Expect(p.Velocity().X).To(Equal(-3.0))
			Expect(p.Curr.Y).To(Equal(100.0))
		})

		It("handles both axes independently", func() {
			s := newStore(1)
			s.Place(0, r2.Vec{X: 50, Y: 170}, r2.Vec{X: 52, Y: 160})

			c.Resolve(s, 1)

			p := s.At(0)
			Expect(p.Curr).To(Equal(r2.Vec{X: 60, Y: 140}))
			Expect(p.Velocity().X).To(Equal(1.5))
			Expect(p.Velocity().Y).To(Equal(-7.5))
		})

		It("stops dead with zero response", func() {
			inelastic, err := solver.NewContainerConstraint(dynamo.NewBox(center, 50, 5), 5, 0, false)
			Expect(err).NotTo(HaveOccurred())
			s := newStore(1)
			s.Place(0, r2.Vec{X: 100, Y: 150}, r2.Vec{X: 100, Y: 145})

			inelastic.Resolve(s, 1)

			Expect(s.At(0).Velocity()).To(Equal(r2.Vec{}))
		})

		It("contains particles that start far outside", func() {
			s := newStore(3)
			s.Place(0, r2.Vec{X: -1e4, Y: 1e4}, r2.Vec{X: 0, Y: 0})
			s.Place(1, r2.Vec{X: 1e6, Y: -3}, r2.Vec{X: 1e6, Y: -3})
			s.Place(2, r2.Vec{X: 100, Y: 100}, r2.Vec{X: 100, Y: 100})

			c.Resolve(s, 3)

			for i := 0; i < 3; i++ {
				Expect(c.Shape().Contains(s.At(i).Curr, 5, 1e-9)).To(BeTrue(), "particle %d", i)
			}
		})
	})

	Context("disk", func() {
		disk := dynamo.NewDisk(center, 50)

		It("projects onto the boundary circle", func() {
			c, err := solver.NewContainerConstraint(disk, 5, 0.75, true)
			Expect(err).NotTo(HaveOccurred())
			s := newStore(1)
			s.Place(0, r2.Vec{X: 100, Y: 200}, r2.Vec{X: 100, Y: 190})

			c.Resolve(s, 1)

			Expect(s.At(0).Curr.X).To(BeNumerically("~", 100, 1e-12))
			Expect(s.At(0).Curr.Y).To(BeNumerically("~", 145, 1e-12))
			// the hard clamp leaves the old position alone
			Expect(s.At(0).Old).To(Equal(r2.Vec{X: 100, Y: 190}))
		})

		It("bounces the normal component and keeps the tangential one", func() {
			c, err := solver.NewContainerConstraint(disk, 5, 0.5, false)
			Expect(err).NotTo(HaveOccurred())
			s := newStore(1)
			s.Place(0, r2.Vec{X: 100, Y: 150}, r2.Vec{X: 98, Y: 146})

			c.Resolve(s, 1)

			p := s.At(0)
			Expect(p.Curr.X).To(BeNumerically("~", 100, 1e-12))
			Expect(p.Curr.Y).To(BeNumerically("~", 145, 1e-12))
			v := p.Velocity()
			Expect(v.X).To(BeNumerically("~", 2, 1e-12))
			Expect(v.Y).To(BeNumerically("~", -2, 1e-12))
		})

		It("is a no-op at the exact centre", func() {
			c, err := solver.NewContainerConstraint(disk, 5, 0.75, false)
			Expect(err).NotTo(HaveOccurred())
			s := newStore(1)
			s.Place(0, center, center)

			Expect(c.Resolve(s, 1)).To(BeZero())
			Expect(s.At(0).Curr).To(Equal(center))
		})

		It("contains every particle for arbitrary inputs", func() {
			for _, hard := range []bool{true, false} {
				c, err := solver.NewContainerConstraint(disk, 5, 0.75, hard)
				Expect(err).NotTo(HaveOccurred())
				s := newStore(64)
				for i := 0; i < 64; i++ {
					a := float64(i) * math.Pi / 32
					r := 10 + float64(i*i)
					p := r2.Vec{X: 100 + r*math.Cos(a), Y: 100 + r*math.Sin(a)}
					s.Place(i, p, center)
				}

				c.Resolve(s, 64)

				for i := 0; i < 64; i++ {
					Expect(disk.Contains(s.At(i).Curr, 5, 1e-9)).To(BeTrue(), "hard=%v particle %d", hard, i)
				}
			}
		})
	})
})

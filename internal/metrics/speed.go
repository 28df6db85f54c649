package metrics

import (
	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// SpeedStats summarises the speed distribution of one sample.
type SpeedStats struct {
	Mean   float64
	StdDev float64
	Max    float64
}

// Speed tracks the speed distribution of the live particles. Value is the
// mean speed of the latest sample.
type Speed struct {
	name   string
	speeds []float64
	last   SpeedStats
	peak   float64
}

func NewSpeed() *Speed {
	return &Speed{name: "mean_speed"}
}

func (s *Speed) Name() string { return s.name }

func (s *Speed) Observe(store *particles.Store, active int, dt float64) {
	s.speeds = s.speeds[:0]
	for i := 0; i < active; i++ {
		s.speeds = append(s.speeds, r2.Norm(store.VelocityEstimate(i, dt)))
	}
	if len(s.speeds) == 0 {
		s.last = SpeedStats{}
		return
	}

	s.last.Mean, s.last.StdDev = stat.MeanStdDev(s.speeds, nil)
	if len(s.speeds) == 1 {
		s.last.StdDev = 0
	}
	s.last.Max = floats.Max(s.speeds)
	if s.last.Max > s.peak {
		s.peak = s.last.Max
	}
}

func (s *Speed) Stats() SpeedStats { return s.last }

// Peak is the fastest particle seen over the run.
func (s *Speed) Peak() float64 { return s.peak }

func (s *Speed) Value() float64 { return s.last.Mean }

func (s *Speed) Reset() {
	s.speeds = s.speeds[:0]
	s.last = SpeedStats{}
	s.peak = 0
}

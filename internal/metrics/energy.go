package metrics

import (
	"math"

	"github.com/san-kum/verletsim/internal/particles"
	"gonum.org/v1/gonum/spatial/r2"
)

// KineticEnergy is the mean over samples of the summed 0.5*|v|^2 of the live
// particles, all of unit mass.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
	last    float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(store *particles.Store, active int, dt float64) {
	k.last = kinetic(store, active, dt)
	k.total += k.last
	k.samples++
}

// Last is the energy of the most recent sample.
func (k *KineticEnergy) Last() float64 { return k.last }

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.samples = 0
	k.total = 0
	k.last = 0
}

func kinetic(store *particles.Store, active int, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	e := 0.0
	for i := 0; i < active; i++ {
		e += 0.5 * r2.Norm2(store.VelocityEstimate(i, dt))
	}
	return e
}

// EnergyDrift tracks the largest relative change of kinetic plus
// gravitational energy against the first sample. Heights are measured up
// from floorY, which is positive y in screen space.
type EnergyDrift struct {
	name     string
	gravity  float64
	floorY   float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(gravity, floorY float64) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
		floorY:  floorY,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(store *particles.Store, active int, dt float64) {
	energy := kinetic(store, active, dt)
	for i := 0; i < active; i++ {
		energy += e.gravity * (e.floorY - store.At(i).Curr.Y)
	}

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

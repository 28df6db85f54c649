package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
)

type ParticleJSON struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
}

type ContainerJSON struct {
	Kind        string     `json:"kind"`
	Center      [2]float64 `json:"center"`
	HalfSize    float64    `json:"half_size,omitempty"`
	BorderWidth float64    `json:"border_width,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
}

// Snapshot is the JSON form of one arena state.
type Snapshot struct {
	Time      float64        `json:"time"`
	Active    int            `json:"active"`
	Container ContainerJSON  `json:"container"`
	Particles []ParticleJSON `json:"particles"`
}

// NewSnapshot reads back the live particles. Velocities are per second for
// a substep of length dt.
func NewSnapshot(store *particles.Store, active int, shape dynamo.Container, t, dt float64) Snapshot {
	snap := Snapshot{
		Time:   t,
		Active: active,
		Container: ContainerJSON{
			Kind:        shape.Kind.String(),
			Center:      [2]float64{shape.Center.X, shape.Center.Y},
			HalfSize:    shape.HalfSize,
			BorderWidth: shape.BorderWidth,
			Radius:      shape.Radius,
		},
		Particles: make([]ParticleJSON, 0, active),
	}
	for i, p := range store.Live(active) {
		v := store.VelocityEstimate(i, dt)
		snap.Particles = append(snap.Particles, ParticleJSON{
			X:      p.Curr.X,
			Y:      p.Curr.Y,
			VX:     v.X,
			VY:     v.Y,
			Radius: p.Radius,
		})
	}
	return snap
}

func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

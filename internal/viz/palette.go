package viz

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// PaletteSteps is the number of discrete speed colours. Index 0 is reserved
// for "no colour".
const PaletteSteps = 16

// Palette maps particle speed to a colour, slow through mid to fast,
// blended in Lab space.
type Palette struct {
	steps [PaletteSteps]colorful.Color
}

func NewPalette(slow, mid, fast string) Palette {
	s, m, f := mustHex(slow), mustHex(mid), mustHex(fast)

	var p Palette
	for i := range p.steps {
		t := float64(i) / float64(PaletteSteps-1)
		if t < 0.5 {
			p.steps[i] = s.BlendLab(m, t*2).Clamped()
		} else {
			p.steps[i] = m.BlendLab(f, (t-0.5)*2).Clamped()
		}
	}
	return p
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}

// Index buckets speed against maxSpeed. The result is in [1, PaletteSteps].
func (p Palette) Index(speed, maxSpeed float64) uint8 {
	if !(maxSpeed > 0) || math.IsNaN(speed) {
		return 1
	}
	t := math.Min(math.Max(speed/maxSpeed, 0), 1)
	return uint8(math.Round(t*float64(PaletteSteps-1))) + 1
}

// Color returns the colour for an index from Index.
func (p Palette) Color(idx uint8) colorful.Color {
	if idx == 0 {
		return colorful.Color{}
	}
	return p.steps[min(int(idx)-1, PaletteSteps-1)]
}

func (p Palette) Hex(idx uint8) string {
	return p.Color(idx).Hex()
}

// SpeedColor is Color(Index(speed, maxSpeed)).
func (p Palette) SpeedColor(speed, maxSpeed float64) colorful.Color {
	return p.Color(p.Index(speed, maxSpeed))
}

// ImagePalette is black followed by every step, in Index order.
func (p Palette) ImagePalette() color.Palette {
	pal := make(color.Palette, 0, PaletteSteps+1)
	pal = append(pal, color.Black)
	for _, c := range p.steps {
		pal = append(pal, c)
	}
	return pal
}

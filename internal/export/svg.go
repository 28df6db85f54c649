package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/particles"
	"github.com/san-kum/verletsim/internal/viz"
	"gonum.org/v1/gonum/spatial/r2"
)

const background = "#0a0a0a"

// SceneOptions controls ParticlesToSVG.
type SceneOptions struct {
	// Size is the side of the square image in pixels.
	Size int
	// Dt converts implicit displacement to speed; pass the substep length.
	Dt float64
	// MaxSpeed maps to the fast end of the palette. Zero picks the fastest
	// particle in the scene.
	MaxSpeed float64
	Palette  viz.Palette
	Wall     string
}

// ParticlesToSVG draws the container and every live particle at its true
// radius, coloured by speed.
func ParticlesToSVG(store *particles.Store, active int, shape dynamo.Container, opts SceneOptions) string {
	size := opts.Size
	if size <= 0 {
		size = 800
	}
	wall := opts.Wall
	if wall == "" {
		wall = "#00ffff"
	}

	lo, hi := shape.Bounds()
	span := r2.Sub(hi, lo)
	scale := float64(size) / max(span.X, span.Y)

	speeds := make([]float64, active)
	maxSpeed := opts.MaxSpeed
	for i := range speeds {
		speeds[i] = r2.Norm(store.VelocityEstimate(i, opts.Dt))
		if opts.MaxSpeed <= 0 {
			maxSpeed = max(maxSpeed, speeds[i])
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, background))

	cx, cy := (shape.Center.X-lo.X)*scale, (shape.Center.Y-lo.Y)*scale
	switch shape.Kind {
	case dynamo.ContainerDisk:
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="2"/>
`, cx, cy, shape.Radius*scale, wall))
	case dynamo.ContainerBox:
		inner := (shape.HalfSize - shape.BorderWidth) * scale
		sb.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="2"/>
`, cx-inner, cy-inner, 2*inner, 2*inner, wall))
	}

	sb.WriteString("<g>\n")
	for i, speed := range speeds {
		p := store.At(i)
		color := opts.Palette.SpeedColor(speed, maxSpeed).Hex()
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, (p.Curr.X-lo.X)*scale, (p.Curr.Y-lo.Y)*scale, p.Radius*scale, color))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG, keeping each cell's tint.
func CanvasToSVG(canvas *viz.Canvas, p viz.Palette, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.DotsWide()) * scale
	height := float64(canvas.DotsHigh()) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background))

	dotRadius := scale * 0.4
	for y := 0; y < canvas.DotsHigh(); y++ {
		for x := 0; x < canvas.DotsWide(); x++ {
			if !canvas.Dot(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			if tint := canvas.Tint[y/4][x/2]; tint != 0 {
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, p.Hex(tint)))
			} else {
				sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws a polyline through points in screen orientation
// (y down), fitted to width x height with 10% padding.
func TrajectoryToSVG(points []r2.Vec, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := (p.Y - minY) / rangeY * float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

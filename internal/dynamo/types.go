package dynamo

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// ContainerKind discriminates the container variants.
type ContainerKind int

const (
	ContainerUnknown ContainerKind = iota
	ContainerBox
	ContainerDisk
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerBox:
		return "box"
	case ContainerDisk:
		return "disk"
	default:
		return fmt.Sprintf("container(%d)", int(k))
	}
}

// ParseContainerKind maps a config name onto a ContainerKind.
func ParseContainerKind(s string) (ContainerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "box", "square":
		return ContainerBox, nil
	case "disk", "circle":
		return ContainerDisk, nil
	}
	return ContainerUnknown, NewConfigError("container.kind", s, ErrUnknownContainer)
}

// Container is the boundary particles are confined to. Only the fields of
// the active Kind are meaningful.
type Container struct {
	Kind   ContainerKind
	Center r2.Vec

	// Box
	HalfSize    float64
	BorderWidth float64

	// Disk
	Radius float64
}

// NewBox returns a square container with the given half side length. The
// border eats into the usable interior.
func NewBox(center r2.Vec, halfSize, borderWidth float64) Container {
	return Container{Kind: ContainerBox, Center: center, HalfSize: halfSize, BorderWidth: borderWidth}
}

// NewDisk returns a circular container.
func NewDisk(center r2.Vec, radius float64) Container {
	return Container{Kind: ContainerDisk, Center: center, Radius: radius}
}

// Validate checks that the container is a known variant that can hold a
// particle of radius maxRadius.
func (c Container) Validate(maxRadius float64) error {
	if !finite(c.Center.X) || !finite(c.Center.Y) {
		return NewConfigError("container.center", c.Center, ErrInvalidConfig)
	}
	switch c.Kind {
	case ContainerBox:
		if c.BorderWidth < 0 {
			return NewConfigError("container.border_width", c.BorderWidth, ErrInvalidConfig)
		}
		if c.HalfSize-c.BorderWidth-maxRadius <= 0 {
			return NewConfigError("container.half_size", c.HalfSize, ErrInvalidConfig)
		}
	case ContainerDisk:
		if c.Radius-maxRadius <= 0 {
			return NewConfigError("container.radius", c.Radius, ErrInvalidConfig)
		}
	default:
		return NewConfigError("container.kind", c.Kind, ErrUnknownContainer)
	}
	return nil
}

// Extent is the half side of the axis-aligned square enclosing the container.
func (c Container) Extent() float64 {
	if c.Kind == ContainerDisk {
		return c.Radius
	}
	return c.HalfSize
}

// Bounds returns the axis-aligned box enclosing the container.
func (c Container) Bounds() (min, max r2.Vec) {
	e := c.Extent()
	return r2.Vec{X: c.Center.X - e, Y: c.Center.Y - e}, r2.Vec{X: c.Center.X + e, Y: c.Center.Y + e}
}

// Floor is the largest y a centre of a disk with the given radius can reach
// inside the container, the bottom of the usable interior in screen
// orientation.
func (c Container) Floor(radius float64) float64 {
	if c.Kind == ContainerDisk {
		return c.Center.Y + c.Radius - radius
	}
	return c.Center.Y + c.HalfSize - c.BorderWidth - radius
}

// Contains reports whether a disk of the given radius at p lies inside the
// usable interior, allowing tol of slack.
func (c Container) Contains(p r2.Vec, radius, tol float64) bool {
	switch c.Kind {
	case ContainerBox:
		limit := c.HalfSize - c.BorderWidth - radius + tol
		return math.Abs(p.X-c.Center.X) <= limit && math.Abs(p.Y-c.Center.Y) <= limit
	case ContainerDisk:
		return r2.Norm(r2.Sub(p, c.Center)) <= c.Radius-radius+tol
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

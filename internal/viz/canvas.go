package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille dot matrix of Width x Height cells, 2 x 4 dots each.
// Every cell carries one tint, a palette index; zero renders untinted.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Tint          [][]uint8
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Tint:   make([][]uint8, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Tint[i] = make([]uint8, w)
	}
	c.Clear()
	return c
}

// DotsWide and DotsHigh are the canvas size in sub-pixels.
func (c *Canvas) DotsWide() int { return c.Width * 2 }

func (c *Canvas) DotsHigh() int { return c.Height * 4 }

// Set sets a dot at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	c.Plot(x, y, 0)
}

// Plot sets a dot and, when tint is non-zero, raises the cell tint to it.
// The brightest (fastest) particle in a cell wins.
func (c *Canvas) Plot(x, y int, tint uint8) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if tint > c.Tint[row][col] {
		c.Tint[row][col] = tint
	}
}

// Dot reports whether the dot at (x, y) is set.
func (c *Canvas) Dot(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return int(c.Grid[y/4][x/2]-blank)&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Tint[i][j] = 0
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, tint uint8) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Plot(x0, y0, tint)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) DrawRect(x0, y0, x1, y1 int, tint uint8) {
	c.DrawLine(x0, y0, x1, y0, tint)
	c.DrawLine(x1, y0, x1, y1, tint)
	c.DrawLine(x1, y1, x0, y1, tint)
	c.DrawLine(x0, y1, x0, y0, tint)
}

// DrawCircle uses the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int, tint uint8) {
	x, y := r, 0
	d := 1 - r
	for x >= y {
		for _, p := range [8][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			c.Plot(cx+p[0], cy+p[1], tint)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// FillCircle sets every dot within r of (cx, cy).
func (c *Canvas) FillCircle(cx, cy int, r float64, tint uint8) {
	if r < 1 {
		c.Plot(cx, cy, tint)
		return
	}
	ir := int(math.Ceil(r))
	r2 := r * r
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			if float64(dx*dx+dy*dy) <= r2 {
				c.Plot(cx+dx, cy+dy, tint)
			}
		}
	}
}

// String renders without colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colours each run of equally tinted cells with p.
func (c *Canvas) Render(p Palette) string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Tint[i][j] == c.Tint[i][start] {
				continue
			}
			run := string(row[start:j])
			if t := c.Tint[i][start]; t != 0 {
				run = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Hex(t))).Render(run)
			}
			b.WriteString(run)
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

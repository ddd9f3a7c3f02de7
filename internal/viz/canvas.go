package viz

import (
	"strings"

	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/physics"
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

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas is
// Width*2 by Height*4 sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
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
		c.Set(x0, y0)
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// CrossSection maps detector coordinates onto a canvas. The junction
// (y = YMin) is the top row.
type CrossSection struct {
	*Canvas
	Bounds detector.Bounds
}

func NewCrossSection(bounds detector.Bounds, w, h int) *CrossSection {
	return &CrossSection{Canvas: NewCanvas(w, h), Bounds: bounds}
}

// Project returns the sub-pixel of p and whether it lies inside the bounds.
func (s *CrossSection) Project(p physics.Vec2) (int, int, bool) {
	if !s.Bounds.Contains(p) {
		return 0, 0, false
	}
	px := (p.X - s.Bounds.XMin) / s.Bounds.Width() * float64(s.Width*2-1)
	py := (p.Y - s.Bounds.YMin) / s.Bounds.Depth() * float64(s.Height*4-1)
	return int(px + 0.5), int(py + 0.5), true
}

// Points marks every position inside the bounds and returns how many were
// drawn.
func (s *CrossSection) Points(ps []physics.Vec2) int {
	n := 0
	for _, p := range ps {
		if x, y, ok := s.Project(p); ok {
			s.Set(x, y)
			n++
		}
	}
	return n
}

// Path draws consecutive positions as connected segments.
func (s *CrossSection) Path(ps []physics.Vec2) {
	var prevX, prevY int
	havePrev := false
	for _, p := range ps {
		x, y, ok := s.Project(p)
		if !ok {
			havePrev = false
			continue
		}
		if havePrev {
			s.DrawLine(prevX, prevY, x, y)
		} else {
			s.Set(x, y)
		}
		prevX, prevY, havePrev = x, y, true
	}
}

// Depletion draws a dashed horizontal line at depth w.
func (s *CrossSection) Depletion(w float64) {
	_, y, ok := s.Project(physics.Vec2{X: s.Bounds.XMin, Y: w})
	if !ok {
		return
	}
	for x := 0; x < s.Width*2; x++ {
		if x%4 < 2 {
			s.Set(x, y)
		}
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

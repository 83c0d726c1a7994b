// Package canvas wraps a braille.Buffer with the geometric primitives the
// renderer draws through: lines, polylines, filled polygons and text,
// grounded on the Bresenham/scanline shape used by the pack's terminal
// drawing code and generalized here to thick lines and ear-cut polygons.
package canvas

import (
	"math"
	"sort"

	"mapscii/braille"
)

// Point is a single (x, y) vertex in canvas pixel space.
type Point struct {
	X, Y int
}

// Canvas draws geometric primitives onto an underlying braille.Buffer.
type Canvas struct {
	buf *braille.Buffer
}

// New wraps buf in a Canvas.
func New(buf *braille.Buffer) *Canvas {
	return &Canvas{buf: buf}
}

func (c *Canvas) Width() int  { return c.buf.Width() }
func (c *Canvas) Height() int { return c.buf.Height() }

// Clear resets the underlying buffer to its empty state.
func (c *Canvas) Clear() { c.buf.Clear() }

// Frame serializes the underlying buffer.
func (c *Canvas) Frame() string { return c.buf.Frame() }

// Background sets a single cell's background color.
func (c *Canvas) Background(x, y int, color uint8) { c.buf.SetBackground(x, y, color) }

// SetBackground sets the fallback background used where no per-cell
// background was written.
func (c *Canvas) SetBackground(color uint8) { c.buf.SetGlobalBackground(color) }

// Text places text starting at (x, y), one code point per two pixel
// columns, optionally centered.
func (c *Canvas) Text(text string, x, y int, color uint8, center bool) {
	c.buf.WriteText(text, x, y, color, center)
}

// Line draws a straight segment from a to b. Widths <= 1 draw the bare
// 4-connected Bresenham line; widths > 1 use the Zingl thick-line variant.
func (c *Canvas) Line(a, b Point, color uint8, width int) {
	if width <= 1 {
		bresenham(a.X, a.Y, b.X, b.Y, func(x, y int) { c.buf.SetPixel(x, y, color) })
		return
	}
	c.thickLine(a, b, color, width)
}

// Polyline draws a connected sequence of segments.
func (c *Canvas) Polyline(points []Point, color uint8, width int) {
	for i := 0; i+1 < len(points); i++ {
		c.Line(points[i], points[i+1], color, width)
	}
}

// bresenham walks the 4-connected line from (x0,y0) to (x1,y1), calling
// plot for every point including both endpoints.
func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		plot(x, y)
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// thickLine implements the Zingl thick-line variant: walk the Bresenham
// error field and, at each step, extend perpendicular to the line's
// direction until the distance from the ideal line exceeds width/2.
func (c *Canvas) thickLine(a, b Point, color uint8, width int) {
	x0, y0, x1, y1 := a.X, a.Y, b.X, b.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	ed := math.Hypot(float64(dx), float64(dy))
	if ed == 0 {
		ed = 1
	}
	wd := (float64(width) + 1) / 2

	x, y := x0, y0
	for {
		c.buf.SetPixel(x, y, color)

		e2, x2 := err, x
		if 2*e2 >= dx {
			// extend in y for the perpendicular thickness
			e2 += dy
			y2 := y
			for float64(e2) < ed*wd && (y1 != y2 || dx > -dy) {
				y2 += sy
				c.buf.SetPixel(x, y2, color)
				e2 += dx
			}
			if x == x1 {
				break
			}
			e2 = err
			err -= dy
			x += sx
		}
		if 2*e2 <= dy {
			e2 = dx - e2
			x2 = x
			for float64(e2) < ed*wd && (x1 != x2 || dx < -dy) {
				x2 += sx
				c.buf.SetPixel(x2, y, color)
				e2 += dy
			}
			if y == y1 {
				break
			}
			err += dx
			y += sy
		}
	}
}

// Polygon triangulates rings (outer ring first, holes after) with ear-cut
// and rasterizes each resulting triangle. Returns false if the outer ring
// has fewer than 3 vertices or the triangulation cannot make progress;
// no partial writes occur for a failed polygon.
func (c *Canvas) Polygon(rings [][]Point, color uint8) bool {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return false
	}
	outer := rings[0]
	var holes [][]Point
	for _, r := range rings[1:] {
		if len(r) < 3 {
			continue
		}
		holes = append(holes, r)
	}

	verts, holeStart := flatten(outer, holes)
	triangles, ok := earcut(verts, holeStart)
	if !ok {
		return false
	}

	for _, tri := range triangles {
		c.filledTriangle(tri[0], tri[1], tri[2], color)
	}
	return true
}

// flatten concatenates the outer ring and holes into a single vertex
// list and records the vertex index at which each hole begins.
func flatten(outer []Point, holes [][]Point) ([]Point, []int) {
	verts := make([]Point, 0, len(outer))
	verts = append(verts, outer...)
	var holeStart []int
	for _, h := range holes {
		holeStart = append(holeStart, len(verts))
		verts = append(verts, h...)
	}
	return verts, holeStart
}

// filledTriangle rasterizes a,b,c per spec: Bresenham the three edges,
// drop out-of-range y, sort by (y,x), then fill horizontal spans between
// consecutive same-y points (a lone point on a row is written directly).
func (c *Canvas) filledTriangle(a, b, c2 Point, color uint8) {
	var pts []Point
	collect := func(p1, p2 Point) {
		bresenham(p1.X, p1.Y, p2.X, p2.Y, func(x, y int) {
			pts = append(pts, Point{x, y})
		})
	}
	collect(a, b)
	collect(b, c2)
	collect(c2, a)

	h := c.buf.Height()
	w := c.buf.Width()

	filtered := pts[:0]
	for _, p := range pts {
		if p.Y >= 0 && p.Y < h {
			filtered = append(filtered, p)
		}
	}
	pts = filtered

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})

	i := 0
	for i < len(pts) {
		j := i
		for j+1 < len(pts) && pts[j+1].Y == pts[i].Y {
			j++
		}
		if j > i {
			xl := pts[i].X
			xr := pts[j].X
			if xl < 0 {
				xl = 0
			}
			if xr > w-1 {
				xr = w - 1
			}
			for x := xl; x <= xr; x++ {
				c.buf.SetPixel(x, pts[i].Y, color)
			}
			i = j + 1
		} else {
			if pts[i].X >= 0 && pts[i].X < w {
				c.buf.SetPixel(pts[i].X, pts[i].Y, color)
			}
			i++
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

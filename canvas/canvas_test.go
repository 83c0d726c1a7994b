package canvas

import (
	"testing"

	"mapscii/braille"
)

const brailleBase = rune(0x2800)

var dotBit = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func newTestCanvas(w, h int) (*Canvas, int, int) {
	buf := braille.New(w, h, braille.Options{UseBraille: true})
	return New(buf), buf.Width(), buf.Height()
}

// glyphMasks strips ANSI SGR escapes and row delimiters from a frame,
// returning the raw braille mask of every cell in row-major order.
func glyphMasks(frame string) []uint8 {
	var masks []uint8
	runes := []rune(frame)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == 0x1b {
			for i < len(runes) && runes[i] != 'm' {
				i++
			}
			continue
		}
		if r == '\n' || r == '\r' {
			continue
		}
		if r >= brailleBase && r < brailleBase+256 {
			masks = append(masks, uint8(r-brailleBase))
		}
	}
	return masks
}

func pixelSet(masks []uint8, cols int, x, y int) bool {
	cellCol, cellRow := x/2, y/4
	i := cellCol + cols*cellRow
	if i < 0 || i >= len(masks) {
		return false
	}
	bit := dotBit[x%2][y%4]
	return masks[i]&bit != 0
}

func countSet(masks []uint8) int {
	n := 0
	for _, m := range masks {
		n += popcount(m)
	}
	return n
}

func popcount(m uint8) int {
	n := 0
	for m != 0 {
		n += int(m & 1)
		m >>= 1
	}
	return n
}

func TestE2ColoredHorizontalLine(t *testing.T) {
	c, w, h := newTestCanvas(8, 4)
	c.Line(Point{0, 0}, Point{7, 0}, 196, 1)
	masks := glyphMasks(c.Frame())

	for cx := 0; cx < w/2; cx++ {
		if !pixelSet(masks, w/2, cx*2, 0) {
			t.Errorf("cell %d missing its top-left dot", cx)
		}
	}
	_ = h
}

func TestE3TriangleFill(t *testing.T) {
	c, w, h := newTestCanvas(16, 16)
	ok := c.Polygon([][]Point{{{0, 0}, {8, 0}, {0, 8}}}, 34)
	if !ok {
		t.Fatal("Polygon returned false for a valid triangle")
	}
	masks := glyphMasks(c.Frame())

	if n := countSet(masks); n < 28 {
		t.Errorf("set pixel count = %d, want >= 28", n)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x > 8 || y > 8) && pixelSet(masks, w/2, x, y) {
				t.Errorf("pixel (%d,%d) outside bounding box is set", x, y)
			}
		}
	}
}

func TestPolygonFailsOnDegenerateOuterRing(t *testing.T) {
	c, _, _ := newTestCanvas(8, 8)
	if c.Polygon([][]Point{{{0, 0}, {1, 1}}}, 1) {
		t.Error("Polygon should fail on an outer ring with < 3 vertices")
	}
}

func TestPolygonOffscreenProducesNoWrites(t *testing.T) {
	c, w, _ := newTestCanvas(8, 8)
	ok := c.Polygon([][]Point{{{100, 100}, {108, 100}, {100, 108}}}, 5)
	if !ok {
		t.Fatal("Polygon returned false unexpectedly")
	}
	masks := glyphMasks(c.Frame())
	if n := countSet(masks); n != 0 {
		t.Errorf("offscreen triangle wrote %d pixels, want 0", n)
	}
	_ = w
}

func TestThickLineDrawsWiderThanBareLine(t *testing.T) {
	thin, _, _ := newTestCanvas(16, 16)
	thin.Line(Point{0, 8}, Point{15, 8}, 1, 1)

	thick, _, _ := newTestCanvas(16, 16)
	thick.Line(Point{0, 8}, Point{15, 8}, 1, 4)

	thinCount := countSet(glyphMasks(thin.Frame()))
	thickCount := countSet(glyphMasks(thick.Frame()))
	if thickCount <= thinCount {
		t.Error("thick line did not draw more pixels than the bare line")
	}
}

func TestPolygonHoleIsNotFilled(t *testing.T) {
	c, _, _ := newTestCanvas(32, 32)
	outer := []Point{{0, 0}, {20, 0}, {20, 20}, {0, 20}}
	hole := []Point{{5, 5}, {15, 5}, {15, 15}, {5, 15}}
	if !c.Polygon([][]Point{outer, hole}, 7) {
		t.Fatal("Polygon returned false for a valid polygon with a hole")
	}
	masks := glyphMasks(c.Frame())
	if pixelSet(masks, 16, 10, 10) {
		t.Error("pixel inside the hole should not be set")
	}
}

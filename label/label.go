// Package label places non-overlapping text labels and point markers in
// cell space, backed by rtree for the overlap test, per spec.md §4.3.
package label

import (
	"github.com/mattn/go-runewidth"

	"mapscii/rtree"
)

// Feature is the payload a Buffer associates with a placed rectangle;
// callers supply whatever identifies the source feature.
type Feature any

type placement struct {
	text    string
	feature Feature
}

// Buffer is a thin collision-checked label placer over an R-tree of
// axis-aligned rectangles in terminal-cell space.
type Buffer struct {
	tree *rtree.Tree
}

// New returns an empty label buffer.
func New() *Buffer {
	return &Buffer{tree: rtree.New()}
}

// Clear drops all placed rectangles, called at the start of every frame.
func (b *Buffer) Clear() {
	b.tree.Clear()
}

// WriteIfPossible computes the rectangle
// [X-m, X+m+width(text)] x [Y-m/2, Y+m/2] for a label anchored at pixel
// (x, y) with the given margin, rejecting it if it collides with any
// previously placed rectangle; otherwise inserts it and returns true.
func (b *Buffer) WriteIfPossible(text string, x, y int, feature Feature, margin int) bool {
	box := labelBox(text, x, y, margin)
	if b.tree.Collides(box) {
		return false
	}
	b.tree.Insert(box, placement{text: text, feature: feature})
	return true
}

func labelBox(text string, x, y, margin int) rtree.Box {
	cx := float64(x >> 1)
	cy := float64(y >> 2)
	m := float64(margin)
	return rtree.Box{
		MinX: cx - m,
		MaxX: cx + m + float64(runewidth.StringWidth(text)),
		MinY: cy - m/2,
		MaxY: cy + m/2,
	}
}

// FeaturesAt returns the features of every rectangle covering cell
// (X, Y), used to answer "what's under the cursor".
func (b *Buffer) FeaturesAt(x, y int) []Feature {
	var out []Feature
	for _, it := range b.tree.SearchPoint(float64(x), float64(y)) {
		p, ok := it.Value.(placement)
		if !ok {
			continue
		}
		out = append(out, p.feature)
	}
	return out
}

package braille

import "math/bits"

// asciiEntry pairs a fallback glyph with the coverage mask (in the same
// 2×4 braille bit layout) of the pixels it visually represents.
type asciiEntry struct {
	glyph rune
	mask  uint8
}

// asciiTable reduces an 8-bit braille mask to one of the 16 Unicode
// "quadrant" block glyphs (2×2 granularity: the top/bottom half of each
// column). It is built once, the same way palette.Table and the teacher's
// config.Themes are package-level tables assembled a single time rather
// than recomputed per call.
var asciiTable = buildASCIITable()

func buildASCIITable() []asciiEntry {
	const (
		tl = uint8(0x01 | 0x02) // column 0, rows 0-1
		bl = uint8(0x04 | 0x40) // column 0, rows 2-3
		tr = uint8(0x08 | 0x10) // column 1, rows 0-1
		br = uint8(0x20 | 0x80) // column 1, rows 2-3
	)
	return []asciiEntry{
		{' ', 0},
		{'▘', tl},
		{'▝', tr},
		{'▀', tl | tr},
		{'▖', bl},
		{'▌', tl | bl},
		{'▞', tr | bl},
		{'▛', tl | tr | bl},
		{'▗', br},
		{'▚', tl | br},
		{'▐', tr | br},
		{'▜', tl | tr | br},
		{'▄', bl | br},
		{'▙', tl | bl | br},
		{'▟', tr | bl | br},
		{'█', tl | tr | bl | br},
	}
}

// asciiFallback chooses the table entry whose mask shares the most set
// bits in common with m (population-count ranking), ties broken by
// first-in-table order, per spec.md §4.1's ASCII fallback map.
func asciiFallback(m uint8) rune {
	best := asciiTable[0]
	bestScore := -1
	for _, e := range asciiTable {
		score := bits.OnesCount8(m & e.mask)
		if score > bestScore {
			bestScore = score
			best = e
		}
	}
	return best.glyph
}

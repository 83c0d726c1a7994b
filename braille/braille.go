// Package braille implements the sub-character raster described in
// spec.md §3-4.1: a grid of terminal cells, each packing a 2×4 pixel block
// into one Unicode braille glyph (or an ASCII/block-glyph fallback), with
// independent per-cell foreground and background palette colors, emitted as
// a single escape-coded frame string.
package braille

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// dotBit is the canonical braille bit layout from spec.md §3:
//
//	col0  col1
//	0x01  0x08   row 0
//	0x02  0x10   row 1
//	0x04  0x20   row 2
//	0x40  0x80   row 3
var dotBit = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40}, // column 0
	{0x08, 0x10, 0x20, 0x80}, // column 1
}

const brailleBase = rune(0x2800)

// csiReset is the SGR sequence that clears foreground and background.
const csiReset = "\x1b[39;49m"

// unset marks an fg/bg/global-background slot that has never been written.
const unset = int16(-1)

// Options configures a Buffer's output. The zero value is valid and
// produces the ASCII block-glyph fallback (UseBraille is false) with the
// "\n\r" row delimiter from spec.md §6.
type Options struct {
	UseBraille bool
	Delimiter  string
}

func (o Options) delimiter() string {
	if o.Delimiter == "" {
		return "\n\r"
	}
	return o.Delimiter
}

// Buffer is the sub-character pixel raster described in spec.md §3.
// Width W is in sub-cell pixels (even); height H is a multiple of 4.
type Buffer struct {
	w, h int
	opts Options

	pixel []uint8
	fg    []int16
	bg    []int16
	char  []string
	charFg []int16

	globalBg int16
}

// New creates a Buffer for a W×H pixel canvas. W is rounded up to an even
// number, H up to a multiple of 4, matching the cell-boundary rounding the
// pack's braille canvas examples perform in their constructors.
func New(w, h int, opts Options) *Buffer {
	if w%2 != 0 {
		w++
	}
	if h%4 != 0 {
		h += 4 - h%4
	}
	cells := (w * h) / 8
	b := &Buffer{
		w:        w,
		h:        h,
		opts:     opts,
		pixel:    make([]uint8, cells),
		fg:       make([]int16, cells),
		bg:       make([]int16, cells),
		char:     make([]string, cells),
		charFg:   make([]int16, cells),
		globalBg: unset,
	}
	b.Clear()
	return b
}

// Width returns the pixel width of the buffer.
func (b *Buffer) Width() int { return b.w }

// Height returns the pixel height of the buffer.
func (b *Buffer) Height() int { return b.h }

func (b *Buffer) cellIndex(x, y int) (int, bool) {
	if x < 0 || x >= b.w || y < 0 || y >= b.h {
		return 0, false
	}
	return (x >> 1) + (b.w>>1)*(y>>2), true
}

// Clear empties every cell (no pixels, no fg/bg color, no override char)
// and drops the global background.
func (b *Buffer) Clear() {
	for i := range b.pixel {
		b.pixel[i] = 0
		b.fg[i] = unset
		b.bg[i] = unset
		b.char[i] = ""
		b.charFg[i] = unset
	}
	b.globalBg = unset
}

// SetPixel ORs the braille bit for (x, y) into its cell and records the
// foreground color. Out-of-range coordinates are a no-op.
func (b *Buffer) SetPixel(x, y int, color uint8) {
	i, ok := b.cellIndex(x, y)
	if !ok {
		return
	}
	bit := dotBit[x&1][y&3]
	b.pixel[i] |= bit
	b.fg[i] = int16(color)
}

// UnsetPixel clears the braille bit for (x, y), leaving fg untouched (it
// simply no longer contributes a rendered dot).
func (b *Buffer) UnsetPixel(x, y int) {
	i, ok := b.cellIndex(x, y)
	if !ok {
		return
	}
	bit := dotBit[x&1][y&3]
	b.pixel[i] &^= bit
}

// SetBackground writes only bg[i], per spec.md §3's invariant that setting
// a background does not disturb pixel/fg.
func (b *Buffer) SetBackground(x, y int, color uint8) {
	i, ok := b.cellIndex(x, y)
	if !ok {
		return
	}
	b.bg[i] = int16(color)
}

// SetGlobalBackground sets the background floor used during emission when
// a cell has no explicit background of its own (spec.md §9(d): cell
// background wins when set, otherwise the global background, never an OR).
func (b *Buffer) SetGlobalBackground(color uint8) {
	b.globalBg = int16(color)
}

// SetChar stores an override character for the cell at (x, y); the
// overridden cell renders ch instead of its braille glyph.
func (b *Buffer) SetChar(ch rune, x, y int, color uint8) {
	i, ok := b.cellIndex(x, y)
	if !ok {
		return
	}
	b.char[i] = string(ch)
	b.charFg[i] = int16(color)
}

// WriteText places text one sub-cell apart horizontally (x += 2 per code
// point), optionally centered. Centering uses runewidth so wide glyphs are
// accounted for correctly, per spec.md §9(c).
func (b *Buffer) WriteText(text string, x, y int, color uint8, center bool) {
	if center {
		x -= runewidth.StringWidth(text)/2 + 1
	}
	cx := x
	for _, r := range text {
		b.SetChar(r, cx, y, color)
		cx += 2
	}
}

// Frame serializes the grid per the contract in spec.md §4.1: row-major
// order, a single state-compression rule between SGR sequences, wide-char
// skip accounting, and a terminating reset.
func (b *Buffer) Frame() string {
	var sb strings.Builder
	delim := b.opts.delimiter()

	// A frame is self-contained: it never assumes the terminal arrived in
	// any particular color state, so it opens on the reset sequence and
	// treats that as the initial baseline for the compaction rule below.
	sb.WriteString(csiReset)
	lastSGR := csiReset
	rows := b.h / 4
	cols := b.w / 2

	for y := 0; y < rows; y++ {
		if y > 0 {
			sb.WriteString(delim)
		}
		skip := 0
		for x := 0; x < cols; x++ {
			i := x + cols*y

			sgr := b.sgrFor(i)
			if sgr != lastSGR {
				sb.WriteString(sgr)
				lastSGR = sgr
			}

			if b.char[i] != "" {
				sb.WriteString(b.char[i])
				skip = runewidth.StringWidth(b.char[i]) - 1
				continue
			}
			if skip > 0 {
				skip--
				continue
			}

			if b.opts.UseBraille {
				sb.WriteRune(brailleBase + rune(b.pixel[i]))
			} else {
				sb.WriteRune(asciiFallback(b.pixel[i]))
			}
		}
	}

	sb.WriteString(csiReset)
	sb.WriteString(delim)
	return sb.String()
}

func (b *Buffer) sgrFor(i int) string {
	fg := b.fg[i]
	if b.char[i] != "" {
		fg = b.charFg[i]
	}
	bg := b.bg[i]
	if bg == unset {
		bg = b.globalBg
	}

	switch {
	case fg != unset && bg != unset:
		return "\x1b[38;5;" + strconv.Itoa(int(fg)) + ";48;5;" + strconv.Itoa(int(bg)) + "m"
	case fg != unset:
		return "\x1b[49;38;5;" + strconv.Itoa(int(fg)) + "m"
	case bg != unset:
		return "\x1b[39;48;5;" + strconv.Itoa(int(bg)) + "m"
	default:
		return csiReset
	}
}

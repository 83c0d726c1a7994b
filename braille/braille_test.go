package braille

import "testing"

func TestE1SinglePixel(t *testing.T) {
	b := New(4, 4, Options{UseBraille: true})
	b.SetPixel(0, 0, 0)
	frame := b.Frame()

	if frame[:len(csiReset)] != csiReset {
		t.Errorf("frame does not start with reset: %q", frame)
	}
	if !containsRune(frame, brailleBase+1) {
		t.Errorf("frame does not contain U+2801: %q", frame)
	}
}

func TestE2ColoredLine(t *testing.T) {
	b := New(8, 4, Options{UseBraille: true})
	for x := 0; x <= 7; x++ {
		b.SetPixel(x, 0, 196)
	}
	// first 4 cells of the top row should all have bit 0x01 set with fg=196
	for cx := 0; cx < 4; cx++ {
		if b.pixel[cx]&0x01 == 0 {
			t.Errorf("cell %d missing bit 0x01", cx)
		}
		if b.fg[cx] != 196 {
			t.Errorf("cell %d fg = %d, want 196", cx, b.fg[cx])
		}
	}
}

func TestSetThenUnsetRestoresPixel(t *testing.T) {
	b := New(4, 4, Options{})
	i, _ := b.cellIndex(0, 0)
	before := b.pixel[i]
	b.SetPixel(0, 0, 5)
	b.UnsetPixel(0, 0)
	if b.pixel[i] != before {
		t.Errorf("pixel[%d] = %x, want %x", i, b.pixel[i], before)
	}
}

func TestClearResetsToEmptyBraille(t *testing.T) {
	b := New(4, 4, Options{UseBraille: true})
	b.SetPixel(0, 0, 5)
	b.SetBackground(0, 0, 9)
	b.Clear()
	frame := b.Frame()
	if !containsRune(frame, brailleBase) {
		t.Errorf("expected only empty braille glyphs after Clear: %q", frame)
	}
	for _, r := range frame {
		if r >= brailleBase && r < brailleBase+256 && r != brailleBase {
			t.Errorf("unexpected non-empty braille glyph %U after Clear", r)
		}
	}
}

func TestFrameSGRIsStateCompressed(t *testing.T) {
	b := New(8, 8, Options{UseBraille: true})
	b.SetPixel(0, 0, 1)
	b.SetPixel(2, 0, 1)
	b.SetPixel(4, 0, 2)
	frame := b.Frame()

	var sequences []string
	for i := 0; i < len(frame); {
		if frame[i] == 0x1b {
			j := i + 1
			for j < len(frame) && frame[j] != 'm' {
				j++
			}
			sequences = append(sequences, frame[i:j+1])
			i = j + 1
			continue
		}
		i++
	}
	for k := 1; k < len(sequences); k++ {
		if sequences[k] == sequences[k-1] {
			t.Errorf("consecutive duplicate SGR sequence %q at position %d", sequences[k], k)
		}
	}
}

func TestSetBackgroundDoesNotTouchPixel(t *testing.T) {
	b := New(4, 4, Options{})
	i, _ := b.cellIndex(0, 0)
	before := b.pixel[i]
	beforeFg := b.fg[i]
	b.SetBackground(0, 0, 42)
	if b.pixel[i] != before || b.fg[i] != beforeFg {
		t.Errorf("SetBackground mutated pixel/fg")
	}
	if b.bg[i] != 42 {
		t.Errorf("bg[%d] = %d, want 42", i, b.bg[i])
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

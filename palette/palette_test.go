package palette

import "testing"

func TestParseHexShortAndLong(t *testing.T) {
	short, err := ParseHex("#f00")
	if err != nil {
		t.Fatal(err)
	}
	long, err := ParseHex("#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	if short != long {
		t.Errorf("short form %d != long form %d", short, long)
	}
}

func TestParseHexInvalid(t *testing.T) {
	if _, err := ParseHex("#zzz"); err == nil {
		t.Error("expected error for invalid hex digits")
	}
	if _, err := ParseHex("#12"); err == nil {
		t.Error("expected error for wrong length")
	}
}

func TestNearestExactMatch(t *testing.T) {
	idx := Nearest(0, 0, 0)
	if Table[idx] != [3]uint8{0, 0, 0} {
		t.Errorf("Nearest(black) = %d -> %v, want black", idx, Table[idx])
	}
	idx = Nearest(255, 255, 255)
	if Table[idx] != [3]uint8{255, 255, 255} {
		t.Errorf("Nearest(white) = %d -> %v, want white", idx, Table[idx])
	}
}

package sqltext

import "testing"

func TestByteOffset_ASCII(t *testing.T) {
	if got := ByteOffset("hello", 3); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestByteOffset_MultiByte(t *testing.T) {
	// 'é' is two bytes, so the third character starts at byte 4.
	if got := ByteOffset("héllo", 2); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := ByteOffset("héllo", 5); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}

func TestByteOffset_Clamped(t *testing.T) {
	if got := ByteOffset("ab", -1); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ByteOffset("ab", 99); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestCharIndex_RoundTrip(t *testing.T) {
	text := "sélect * from tä"
	for i := 0; i <= 16; i++ {
		off := ByteOffset(text, i)
		if got := CharIndex(text, off); got != i {
			t.Errorf("char %d: round-trip via byte %d gave %d", i, off, got)
		}
	}
}

func TestCharIndex_MidRune(t *testing.T) {
	// Byte 2 is inside 'é'; it counts as the next character.
	if got := CharIndex("héllo", 2); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestLineCol_FirstLine(t *testing.T) {
	line, col := LineCol("SELECT 1", 7)
	if line != 1 || col != 8 {
		t.Errorf("expected 1:8, got %d:%d", line, col)
	}
}

func TestLineCol_SecondLine(t *testing.T) {
	line, col := LineCol("SELECT 1\nFROM t", 11)
	if line != 2 || col != 3 {
		t.Errorf("expected 2:3, got %d:%d", line, col)
	}
}

func TestLineCol_CountsCharactersNotBytes(t *testing.T) {
	line, col := LineCol("héllo", 6)
	if line != 1 || col != 6 {
		t.Errorf("expected 1:6, got %d:%d", line, col)
	}
}

package sqltext

import "unicode/utf8"

// The editing surface addresses positions by character count while every
// substring operation in this package works on byte offsets. These two
// conversions are the only place that mapping happens; both clamp their input
// and always land on a rune boundary, so slicing with the result is safe.

// ByteOffset converts a character (rune) index into a byte offset.
func ByteOffset(text string, charIndex int) int {
	if charIndex <= 0 {
		return 0
	}
	n := 0
	for pos := range text {
		if n == charIndex {
			return pos
		}
		n++
	}
	return len(text)
}

// CharIndex converts a byte offset into a character (rune) index. An offset
// that falls inside a multi-byte rune counts as the index of the next rune
// boundary.
func CharIndex(text string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(text) {
		byteOffset = len(text)
	}
	n := 0
	for pos := range text {
		if pos >= byteOffset {
			return n
		}
		n++
	}
	return utf8.RuneCountInString(text)
}

// LineCol returns the 1-based line and column (in characters) of a byte
// offset, for the status bar readout.
func LineCol(text string, byteOffset int) (line, col int) {
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset > len(text) {
		byteOffset = len(text)
	}
	line, col = 1, 1
	for pos, r := range text {
		if pos >= byteOffset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

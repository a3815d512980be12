package sqltext

import (
	"unicode"
	"unicode/utf8"
)

// minTriggerLen is the shortest in-progress token that opens autocomplete.
const minTriggerLen = 2

// Trigger is the in-progress token under the cursor that autocomplete
// matches against. Word is the part before the cursor; End extends past it
// to the next delimiter so accepting a suggestion replaces the whole token.
type Trigger struct {
	Start, End int
	Word       string
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Trigger-token delimiters. The dot is deliberately not one so that
// "users.na" stays a single token for table.column completion.
func isTriggerDelim(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')' || r == ';'
}

// TriggerWord extracts the token ending at the cursor byte offset. It
// reports false when the part before the cursor is shorter than two
// characters, which keeps the popup quiet on single keystrokes.
func TriggerWord(text string, cursor int) (Trigger, bool) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	start := cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if isTriggerDelim(r) {
			break
		}
		start -= size
	}
	end := cursor
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if isTriggerDelim(r) {
			break
		}
		end += size
	}
	word := text[start:cursor]
	if utf8.RuneCountInString(word) < minTriggerLen {
		return Trigger{}, false
	}
	return Trigger{Start: start, End: end, Word: word}, true
}

// WordRight moves a byte offset one word to the right: past the rest of the
// current word run, then past the following non-word run. At the end of the
// buffer it stays put.
func WordRight(text string, pos int) int {
	if pos < 0 {
		pos = 0
	}
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !isWordRune(r) {
			break
		}
		pos += size
	}
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if isWordRune(r) {
			break
		}
		pos += size
	}
	if pos > len(text) {
		pos = len(text)
	}
	return pos
}

// WordLeft mirrors WordRight: back over the non-word run before the offset,
// then back over the word run preceding it, landing at that word's start.
// At offset 0 it stays put.
func WordLeft(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:pos])
		if isWordRune(r) {
			break
		}
		pos -= size
	}
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:pos])
		if !isWordRune(r) {
			break
		}
		pos -= size
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Package sqltext is the SQL-aware text engine behind the query editor:
// syntax highlighting spans, statement splitting, autocomplete suggestions,
// word-boundary navigation and line-block edits. It operates on plain UTF-8
// strings, performs no I/O and never panics on malformed input.
package sqltext

import "strings"

type scanState int

const (
	stateNormal scanState = iota
	stateSingleQuote
	stateDoubleQuote
	stateBacktick
	stateLineComment
	stateBlockComment
)

// region is a maximal run of the buffer in a single scan state. Delimiters
// belong to the region they open or close: a string region includes both
// quotes, a line comment ends before its terminating newline.
type region struct {
	start, end int
	state      scanState
}

// scanRegions partitions text into regions. It is the single source of truth
// for "am I inside a string or comment", shared by the highlighter and the
// statement splitter so the two can never disagree. Unterminated strings and
// comments run to the end of the buffer.
func scanRegions(text string) []region {
	var regs []region
	n := len(text)
	normalStart := 0
	flush := func(end int) {
		if end > normalStart {
			regs = append(regs, region{normalStart, end, stateNormal})
		}
	}

	i := 0
	for i < n {
		c := text[i]
		switch {
		case (c == '-' && i+1 < n && text[i+1] == '-') || c == '#':
			flush(i)
			end := n
			if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
				end = i + j
			}
			regs = append(regs, region{i, end, stateLineComment})
			i, normalStart = end, end

		case c == '/' && i+1 < n && text[i+1] == '*':
			flush(i)
			end := n
			if j := strings.Index(text[i+2:], "*/"); j >= 0 {
				end = i + 2 + j + 2
			}
			regs = append(regs, region{i, end, stateBlockComment})
			i, normalStart = end, end

		case c == '\'':
			flush(i)
			end := scanSingleQuoted(text, i+1)
			regs = append(regs, region{i, end, stateSingleQuote})
			i, normalStart = end, end

		case c == '"':
			flush(i)
			end := scanUntilByte(text, i+1, '"')
			regs = append(regs, region{i, end, stateDoubleQuote})
			i, normalStart = end, end

		case c == '`':
			flush(i)
			end := scanUntilByte(text, i+1, '`')
			regs = append(regs, region{i, end, stateBacktick})
			i, normalStart = end, end

		default:
			i++
		}
	}
	flush(n)
	return regs
}

// scanSingleQuoted finds the end (exclusive) of a single-quoted string whose
// opening quote sits just before i. A doubled '' is an escaped quote and does
// not terminate the string.
func scanSingleQuoted(text string, i int) int {
	for i < len(text) {
		if text[i] == '\'' {
			if i+1 < len(text) && text[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(text)
}

// scanUntilByte finds the end (exclusive) of a region terminated by the first
// occurrence of d. No doubling rule: the first d always terminates.
func scanUntilByte(text string, i int, d byte) int {
	if j := strings.IndexByte(text[i:], d); j >= 0 {
		return i + j + 1
	}
	return len(text)
}

package sqltext

import (
	"strings"
	"unicode"
)

// Statement is the byte range of one top-level SQL statement, trimmed of
// surrounding whitespace. Like spans, statement ranges are derived from the
// exact buffer they were computed from and are invalidated by any edit.
type Statement struct {
	Start, End int
}

// Text returns the statement's text within the buffer it was computed from.
func (s Statement) Text(buf string) string {
	return buf[s.Start:s.End]
}

// Split partitions the buffer into top-level statements. A ';' outside any
// quote or comment closes the statement that contains it; whatever non-blank
// text follows the last ';' becomes a final statement. Statements that are
// empty after trimming (";;") are dropped.
func Split(text string) []Statement {
	var stmts []Statement
	start := 0
	for _, reg := range scanRegions(text) {
		if reg.state != stateNormal {
			continue
		}
		for i := reg.start; i < reg.end; i++ {
			if text[i] != ';' {
				continue
			}
			if st, ok := trimRange(text, start, i+1); ok {
				stmts = append(stmts, st)
			}
			start = i + 1
		}
	}
	if st, ok := trimRange(text, start, len(text)); ok {
		stmts = append(stmts, st)
	}
	return stmts
}

// StatementAt resolves the statement containing the cursor byte offset,
// inclusive on both trimmed ends. When the cursor sits in no statement the
// trimmed whole buffer is the fallback; a blank buffer yields no statement.
func StatementAt(text string, cursor int) (Statement, bool) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	for _, st := range Split(text) {
		if cursor >= st.Start && cursor <= st.End {
			return st, true
		}
	}
	return trimRange(text, 0, len(text))
}

// trimRange shrinks [start, end) to exclude leading and trailing whitespace,
// reporting false when nothing remains. A range holding only semicolons and
// whitespace (";;") carries no statement and is rejected too. Trimming whole
// runes keeps the range byte-boundary valid.
func trimRange(text string, start, end int) (Statement, bool) {
	seg := text[start:end]
	lead := strings.TrimLeftFunc(seg, unicode.IsSpace)
	start += len(seg) - len(lead)
	body := strings.TrimRightFunc(lead, unicode.IsSpace)
	end = start + len(body)
	if start >= end {
		return Statement{}, false
	}
	if strings.Trim(body, "; \t\r\n") == "" {
		return Statement{}, false
	}
	return Statement{start, end}, true
}

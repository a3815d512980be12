package sqltext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SpanKind classifies a highlighted range. Styling belongs to the renderer;
// the engine only tags.
type SpanKind int

const (
	KindPlain SpanKind = iota
	KindKeyword
	KindType
	KindFunction
	KindString
	KindQuotedIdent
	KindNumber
	KindComment
)

// Span is a classified byte range of the buffer. Highlight produces spans
// that are ordered, non-overlapping and together cover the whole buffer.
type Span struct {
	Start, End int
	Kind       SpanKind
}

// Highlight classifies the buffer into spans for rendering. Spans are valid
// only for the exact text they were computed from; any edit requires a fresh
// pass.
func Highlight(text string) []Span {
	var spans []Span
	for _, reg := range scanRegions(text) {
		switch reg.state {
		case stateLineComment, stateBlockComment:
			spans = appendSpan(spans, Span{reg.start, reg.end, KindComment})
		case stateSingleQuote:
			spans = appendSpan(spans, Span{reg.start, reg.end, KindString})
		case stateDoubleQuote, stateBacktick:
			spans = appendSpan(spans, Span{reg.start, reg.end, KindQuotedIdent})
		default:
			spans = highlightNormal(spans, text, reg.start, reg.end)
		}
	}
	return spans
}

// highlightNormal classifies a region the scanner reported as outside any
// quote or comment: numbers, identifiers looked up against the name tables,
// and everything else as plain text.
func highlightNormal(spans []Span, text string, start, end int) []Span {
	i := start
	for i < end {
		c := text[i]
		if c >= '0' && c <= '9' {
			j := i + 1
			for j < end && (text[j] >= '0' && text[j] <= '9' || text[j] == '.') {
				j++
			}
			spans = appendSpan(spans, Span{i, j, KindNumber})
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:end])
		if r == '_' || unicode.IsLetter(r) {
			j := i + size
			for j < end {
				r2, s2 := utf8.DecodeRuneInString(text[j:end])
				if r2 != '_' && !unicode.IsLetter(r2) && !unicode.IsDigit(r2) {
					break
				}
				j += s2
			}
			spans = appendSpan(spans, Span{i, j, wordKind(text[i:j])})
			i = j
			continue
		}

		spans = appendSpan(spans, Span{i, i + size, KindPlain})
		i += size
	}
	return spans
}

func wordKind(word string) SpanKind {
	upper := strings.ToUpper(word)
	if _, ok := keywordSet[upper]; ok {
		return KindKeyword
	}
	if _, ok := typeSet[upper]; ok {
		return KindType
	}
	if _, ok := functionSet[upper]; ok {
		return KindFunction
	}
	return KindPlain
}

// appendSpan appends s, coalescing it with the previous span when the two
// are contiguous and share a kind (plain runs in particular).
func appendSpan(spans []Span, s Span) []Span {
	if n := len(spans); n > 0 && spans[n-1].End == s.Start && spans[n-1].Kind == s.Kind {
		spans[n-1].End = s.End
		return spans
	}
	return append(spans, s)
}

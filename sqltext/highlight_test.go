package sqltext

import (
	"reflect"
	"strings"
	"testing"
)

// kindOf returns the span kind at the first occurrence of sub in text.
func kindOf(t *testing.T, text, sub string) SpanKind {
	t.Helper()
	off := strings.Index(text, sub)
	if off < 0 {
		t.Fatalf("%q not found in %q", sub, text)
	}
	for _, s := range Highlight(text) {
		if off >= s.Start && off < s.End {
			return s.Kind
		}
	}
	t.Fatalf("no span covers offset %d in %q", off, text)
	return KindPlain
}

func TestHighlight_KeywordTypeFunction(t *testing.T) {
	text := "SELECT COUNT(id) FROM t WHERE n::INT > 1"
	if got := kindOf(t, text, "SELECT"); got != KindKeyword {
		t.Errorf("expected SELECT tagged keyword, got %v", got)
	}
	if got := kindOf(t, text, "COUNT"); got != KindFunction {
		t.Errorf("expected COUNT tagged function, got %v", got)
	}
	if got := kindOf(t, text, "INT"); got != KindType {
		t.Errorf("expected INT tagged type, got %v", got)
	}
	if got := kindOf(t, text, "id"); got != KindPlain {
		t.Errorf("expected id tagged plain, got %v", got)
	}
}

func TestHighlight_CaseInsensitiveLookup(t *testing.T) {
	if got := kindOf(t, "select 1", "select"); got != KindKeyword {
		t.Errorf("expected lowercase select tagged keyword, got %v", got)
	}
}

func TestHighlight_StringWithEscapedQuote(t *testing.T) {
	text := "SELECT 'it''s' FROM t"
	spans := Highlight(text)
	var str *Span
	for i := range spans {
		if spans[i].Kind == KindString {
			str = &spans[i]
		}
	}
	if str == nil {
		t.Fatal("expected a string span")
	}
	if got := text[str.Start:str.End]; got != "'it''s'" {
		t.Errorf("expected whole escaped string as one span, got %q", got)
	}
}

func TestHighlight_QuotedIdentNotKeyword(t *testing.T) {
	text := `SELECT "select" FROM t`
	if got := kindOf(t, text, `"select"`); got != KindQuotedIdent {
		t.Errorf("expected quoted identifier kind, got %v", got)
	}
}

func TestHighlight_Numbers(t *testing.T) {
	text := "WHERE a = 12.5 AND b = 3"
	if got := kindOf(t, text, "12.5"); got != KindNumber {
		t.Errorf("expected 12.5 tagged number, got %v", got)
	}
	if got := kindOf(t, text, "3"); got != KindNumber {
		t.Errorf("expected 3 tagged number, got %v", got)
	}
}

func TestHighlight_DigitInsideWordIsNotNumber(t *testing.T) {
	if got := kindOf(t, "SELECT col2 FROM t", "col2"); got != KindPlain {
		t.Errorf("expected col2 tagged plain, got %v", got)
	}
}

func TestHighlight_CommentSwallowsKeyword(t *testing.T) {
	text := "-- SELECT not really\nSELECT 1"
	spans := Highlight(text)
	if spans[0].Kind != KindComment {
		t.Fatalf("expected leading comment span, got %v", spans[0])
	}
	if got := text[spans[0].Start:spans[0].End]; got != "-- SELECT not really" {
		t.Errorf("expected comment to stop before newline, got %q", got)
	}
}

func TestHighlight_Empty(t *testing.T) {
	if got := Highlight(""); len(got) != 0 {
		t.Errorf("expected no spans for empty text, got %v", got)
	}
}

func TestHighlight_SpansCoverBuffer(t *testing.T) {
	texts := []string{
		"SELECT * FROM users WHERE name = 'ann' -- tail",
		"INSERT INTO t VALUES (1, 'a;b', `c`)",
		"/* block */ select count(*) from x;",
		"héllo wörld 'é'",
	}
	for _, text := range texts {
		prev := 0
		for _, s := range Highlight(text) {
			if s.Start != prev {
				t.Errorf("%q: gap or overlap at %d (span %v)", text, prev, s)
			}
			if s.End <= s.Start {
				t.Errorf("%q: empty span %v", text, s)
			}
			prev = s.End
		}
		if prev != len(text) {
			t.Errorf("%q: spans end at %d, want %d", text, prev, len(text))
		}
	}
}

func TestHighlight_PlainRunsCoalesced(t *testing.T) {
	text := "a + b"
	got := Highlight(text)
	want := []Span{{0, 5, KindPlain}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

package sqltext

import (
	"sort"
	"strings"
)

// maxSuggestions caps the popup list.
const maxSuggestions = 12

// SuggestionKind tags a candidate. The numeric order is the ranking
// priority: schema-derived names sort before dictionary entries.
type SuggestionKind int

const (
	SuggestTable SuggestionKind = iota
	SuggestColumn
	SuggestKeyword
	SuggestFunction
	SuggestType
)

// Label returns the short tag shown next to a suggestion in the popup.
func (k SuggestionKind) Label() string {
	switch k {
	case SuggestTable:
		return "table"
	case SuggestColumn:
		return "column"
	case SuggestKeyword:
		return "keyword"
	case SuggestFunction:
		return "func"
	case SuggestType:
		return "type"
	}
	return ""
}

// Suggestion is one completion candidate. Display is what the popup shows,
// Insert is what replaces the trigger token on acceptance.
type Suggestion struct {
	Display string
	Insert  string
	Kind    SuggestionKind
}

// Column describes one column of a catalog table.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
}

// Table is a catalog table with its ordered columns.
type Table struct {
	Name    string
	Columns []Column
}

// Catalog is a read-only snapshot of the connected database's schema. The
// host replaces it wholesale whenever the connection or schema changes; this
// package only ever reads it.
type Catalog struct {
	Tables []Table
}

// Table looks a table up by name, case-insensitively.
func (c *Catalog) Table(name string) *Table {
	if c == nil {
		return nil
	}
	for i := range c.Tables {
		if strings.EqualFold(c.Tables[i].Name, name) {
			return &c.Tables[i]
		}
	}
	return nil
}

// Suggest produces the ranked completion list for a trigger word: static
// keyword/type/function dictionaries merged with table and column names from
// the catalog, capped at maxSuggestions. A word of the form
// "table.columnprefix" restricts matching to that table's columns.
func Suggest(word string, cat *Catalog) []Suggestion {
	if word == "" {
		return nil
	}
	if strings.Count(word, ".") == 1 {
		return suggestDotted(word, cat)
	}

	upper := strings.ToUpper(word)
	lower := strings.ToLower(word)
	var out []Suggestion

	for _, kw := range sqlKeywords {
		if strings.HasPrefix(kw, upper) {
			out = append(out, Suggestion{Display: kw, Insert: kw, Kind: SuggestKeyword})
		}
	}
	for _, t := range sqlTypes {
		if strings.HasPrefix(t, upper) {
			out = append(out, Suggestion{Display: t, Insert: t, Kind: SuggestType})
		}
	}
	for _, f := range sqlFunctions {
		if strings.HasPrefix(f, upper) {
			name := f + "()"
			out = append(out, Suggestion{Display: name, Insert: name, Kind: SuggestFunction})
		}
	}
	if cat != nil {
		for _, t := range cat.Tables {
			if strings.HasPrefix(strings.ToLower(t.Name), lower) {
				out = append(out, Suggestion{Display: t.Name, Insert: t.Name, Kind: SuggestTable})
			}
		}
		for _, t := range cat.Tables {
			for _, col := range t.Columns {
				if strings.HasPrefix(strings.ToLower(col.Name), lower) {
					out = append(out, Suggestion{
						Display: col.Name + " (" + t.Name + ")",
						Insert:  col.Name,
						Kind:    SuggestColumn,
					})
				}
			}
		}
	}

	rankSuggestions(out, upper)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// suggestDotted handles the "table.columnprefix" form: only columns of the
// named table are offered, and the insertion text carries the table prefix
// so accepting replaces the whole trigger token losslessly. An unknown table
// name simply yields nothing.
func suggestDotted(word string, cat *Catalog) []Suggestion {
	parts := strings.SplitN(word, ".", 2)
	tbl := cat.Table(parts[0])
	if tbl == nil {
		return nil
	}
	colPrefix := strings.ToLower(parts[1])

	var out []Suggestion
	for _, col := range tbl.Columns {
		if strings.HasPrefix(strings.ToLower(col.Name), colPrefix) {
			out = append(out, Suggestion{
				Display: col.Name,
				Insert:  tbl.Name + "." + col.Name,
				Kind:    SuggestColumn,
			})
		}
	}
	rankSuggestions(out, strings.ToUpper(word))
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// rankSuggestions orders candidates: case-folded-prefix matches on the
// insertion text first (a stable tie-break while matching is prefix-only),
// then kind priority, then display text.
func rankSuggestions(s []Suggestion, upperWord string) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		ae := strings.HasPrefix(strings.ToUpper(a.Insert), upperWord)
		be := strings.HasPrefix(strings.ToUpper(b.Insert), upperWord)
		if ae != be {
			return ae
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Display < b.Display
	})
}

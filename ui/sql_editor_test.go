package ui

import (
	"testing"
	"unicode/utf8"

	"fyne.io/fyne/v2"

	"querydesk/sqltext"
)

func editorCatalog() *sqltext.Catalog {
	return &sqltext.Catalog{
		Tables: []sqltext.Table{
			{
				Name: "users",
				Columns: []sqltext.Column{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "name", Type: "text"},
					{Name: "email", Type: "text"},
				},
			},
			{
				Name: "orders",
				Columns: []sqltext.Column{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "user_id", Type: "integer"},
				},
			},
		},
	}
}

func TestUpdateAC_KeywordPrefix(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SEL"}
	e.cursorCol = 3

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.acVisible {
		t.Fatal("expected autocomplete popup to be visible")
	}
	if len(e.acItems) == 0 || e.acItems[0].Insert != "SELECT" {
		t.Errorf("expected first candidate SELECT, got %v", e.acItems)
	}
	if e.acTrigger.Word != "SEL" {
		t.Errorf("expected trigger word 'SEL', got %q", e.acTrigger.Word)
	}
}

func TestUpdateAC_TooShort(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"S"}
	e.cursorCol = 1

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acVisible {
		t.Error("expected popup hidden for single-character word")
	}
}

func TestUpdateAC_AtDelimiter(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT "}
	e.cursorCol = 7

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acVisible {
		t.Error("expected popup hidden right after a delimiter")
	}
}

func TestUpdateAC_SchemaTablesRankFirst(t *testing.T) {
	e := NewSQLEditor()
	e.catalog = editorCatalog()
	e.lines = []string{"SELECT * FROM us"}
	e.cursorCol = 16

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.acVisible {
		t.Fatal("expected autocomplete popup to be visible")
	}
	if e.acItems[0].Insert != "users" || e.acItems[0].Kind != sqltext.SuggestTable {
		t.Errorf("expected 'users' table first, got %+v", e.acItems[0])
	}
}

func TestUpdateAC_ExactSingleMatchHidden(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT"}
	e.cursorCol = 6

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acVisible {
		t.Error("expected popup hidden when the word is the only candidate")
	}
}

func TestUpdateAC_DottedColumns(t *testing.T) {
	e := NewSQLEditor()
	e.catalog = editorCatalog()
	e.lines = []string{"SELECT users.na"}
	e.cursorCol = 15

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.acVisible {
		t.Fatal("expected autocomplete popup to be visible")
	}
	if len(e.acItems) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %v", len(e.acItems), e.acItems)
	}
	if e.acItems[0].Display != "name" {
		t.Errorf("expected display 'name', got %q", e.acItems[0].Display)
	}
	if e.acItems[0].Insert != "users.name" {
		t.Errorf("expected insert 'users.name', got %q", e.acItems[0].Insert)
	}
}

func TestUpdateAC_DottedUnknownTable(t *testing.T) {
	e := NewSQLEditor()
	e.catalog = editorCatalog()
	e.lines = []string{"nope.co"}
	e.cursorCol = 7

	e.updateAutocomplete()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acVisible {
		t.Error("expected popup hidden for unknown table prefix")
	}
}

func TestAcceptCompletion_ReplacesTriggerToken(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SEL"}
	e.cursorCol = 3

	e.updateAutocomplete()
	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lines[0] != "SELECT" {
		t.Errorf("expected 'SELECT', got %q", e.lines[0])
	}
	if e.cursorCol != 6 {
		t.Errorf("expected cursor at col 6, got %d", e.cursorCol)
	}
	if e.acVisible {
		t.Error("expected popup hidden after accept")
	}
}

func TestAcceptCompletion_DottedKeepsTablePrefix(t *testing.T) {
	e := NewSQLEditor()
	e.catalog = editorCatalog()
	e.lines = []string{"SELECT users.na FROM users"}
	e.cursorCol = 15

	e.updateAutocomplete()
	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lines[0] != "SELECT users.name FROM users" {
		t.Errorf("expected dotted insert, got %q", e.lines[0])
	}
	if e.cursorCol != 17 {
		t.Errorf("expected cursor at col 17, got %d", e.cursorCol)
	}
}

func TestAcceptCompletion_MidWordReplacesWholeToken(t *testing.T) {
	// Cursor inside "SEL|ECTED": the whole token is replaced, not split.
	e := NewSQLEditor()
	e.lines = []string{"SELECTED"}
	e.cursorCol = 3

	e.updateAutocomplete()

	e.mu.Lock()
	vis := e.acVisible
	e.mu.Unlock()
	if !vis {
		t.Fatal("expected autocomplete popup to be visible")
	}

	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lines[0] != "SELECT" {
		t.Errorf("expected whole token replaced with 'SELECT', got %q", e.lines[0])
	}
}

func TestAcceptCompletion_NotVisible(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SEL"}
	e.cursorCol = 3
	e.acVisible = false
	e.acItems = []sqltext.Suggestion{{Display: "SELECT", Insert: "SELECT"}}

	e.acceptCompletion()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lines[0] != "SEL" {
		t.Errorf("expected 'SEL' (unchanged), got %q", e.lines[0])
	}
}

func TestDoIndent_Selection(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"a", "b", "c"}
	e.anchorRow, e.anchorCol = 0, 0
	e.cursorRow, e.cursorCol = 1, 1
	e.hasSelection = true

	e.doIndent()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lines[0] != "  a" || e.lines[1] != "  b" || e.lines[2] != "c" {
		t.Errorf("expected first two lines indented, got %v", e.lines)
	}
	if e.hasSelection {
		t.Error("expected selection cleared after indent")
	}
}

func TestDoOutdent_CursorLine(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"  SELECT 1"}
	e.cursorCol = 5

	e.doOutdent()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lines[0] != "SELECT 1" {
		t.Errorf("expected outdented line, got %q", e.lines[0])
	}
}

func TestDoToggleComment_RoundTrip(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT 1", "SELECT 2"}
	e.anchorRow, e.anchorCol = 0, 0
	e.cursorRow, e.cursorCol = 1, 8
	e.hasSelection = true

	e.doToggleComment()

	e.mu.Lock()
	if e.lines[0] != "-- SELECT 1" || e.lines[1] != "-- SELECT 2" {
		t.Errorf("expected commented lines, got %v", e.lines)
	}
	e.anchorRow, e.anchorCol = 0, 0
	e.cursorRow, e.cursorCol = 1, len(e.lines[1])
	e.hasSelection = true
	e.mu.Unlock()

	e.doToggleComment()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lines[0] != "SELECT 1" || e.lines[1] != "SELECT 2" {
		t.Errorf("expected uncommented lines, got %v", e.lines)
	}
}

func TestDoDuplicateLine(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT 1", "SELECT 2"}
	e.cursorRow = 0

	e.doDuplicateLine()

	e.mu.Lock()
	defer e.mu.Unlock()
	want := []string{"SELECT 1", "SELECT 1", "SELECT 2"}
	for i, l := range want {
		if e.lines[i] != l {
			t.Errorf("line %d: expected %q, got %q", i, l, e.lines[i])
		}
	}
	if e.cursorRow != 1 {
		t.Errorf("expected cursor on duplicated line, got row %d", e.cursorRow)
	}
}

func TestWordRight_CrossesLines(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"ab", "cd"}
	e.cursorRow, e.cursorCol = 0, 2

	e.mu.Lock()
	e.wordRightLocked()
	row, col := e.cursorRow, e.cursorCol
	e.mu.Unlock()

	if row != 1 || col != 0 {
		t.Errorf("expected cursor at (1,0), got (%d,%d)", row, col)
	}
}

func TestWordLeft_SkipsToWordStart(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT foo_bar"}
	e.cursorRow, e.cursorCol = 0, 14

	e.mu.Lock()
	e.wordLeftLocked()
	col := e.cursorCol
	e.mu.Unlock()

	if col != 7 {
		t.Errorf("expected cursor at col 7 (start of foo_bar), got %d", col)
	}
}

func TestCursorLeft_StepsWholeRune(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"héllo"}
	e.cursorRow, e.cursorCol = 0, 3 // just after the two-byte é

	e.mu.Lock()
	e.cursorLeftLocked()
	col := e.cursorCol
	e.mu.Unlock()

	if col != 1 {
		t.Errorf("expected cursor at col 1 (before é), got %d", col)
	}
}

func TestCursorRight_StepsWholeRune(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"héllo"}
	e.cursorRow, e.cursorCol = 0, 1 // just before the é

	e.mu.Lock()
	e.cursorRightLocked()
	col := e.cursorCol
	e.mu.Unlock()

	if col != 3 {
		t.Errorf("expected cursor at col 3 (after é), got %d", col)
	}
}

func TestBackspace_RemovesWholeRune(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"héllo"}
	e.cursorRow, e.cursorCol = 0, 3

	e.TypedKey(&fyne.KeyEvent{Name: fyne.KeyBackspace})

	e.mu.Lock()
	line := e.lines[0]
	col := e.cursorCol
	e.mu.Unlock()

	if line != "hllo" || col != 1 {
		t.Errorf("expected 'hllo' at col 1, got %q at %d", line, col)
	}
	if !utf8.ValidString(line) {
		t.Errorf("expected valid UTF-8, got %q", line)
	}
}

func TestDelete_RemovesWholeRune(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"héllo"}
	e.cursorRow, e.cursorCol = 0, 1

	e.TypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})

	e.mu.Lock()
	line := e.lines[0]
	e.mu.Unlock()

	if line != "hllo" {
		t.Errorf("expected 'hllo', got %q", line)
	}
	if !utf8.ValidString(line) {
		t.Errorf("expected valid UTF-8, got %q", line)
	}
}

func TestCursorUp_SnapsToRuneBoundary(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"aé", "xxxx"}
	e.cursorRow, e.cursorCol = 1, 2 // é spans bytes 1-2 on the line above

	e.mu.Lock()
	e.cursorUpLocked()
	row, col := e.cursorRow, e.cursorCol
	e.mu.Unlock()

	if row != 0 || col != 1 {
		t.Errorf("expected cursor at (0,1), got (%d,%d)", row, col)
	}
}

func TestCursorOffsetAndLineCol(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT", "FROM t"}
	e.cursorRow, e.cursorCol = 1, 4

	if got := e.CursorOffset(); got != 11 {
		t.Errorf("expected offset 11, got %d", got)
	}
	line, col := e.CursorLineCol()
	if line != 2 || col != 5 {
		t.Errorf("expected 2:5, got %d:%d", line, col)
	}
}

func TestSelectedText_MultiLine(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"SELECT 1;", "SELECT 2;"}
	e.anchorRow, e.anchorCol = 0, 7
	e.cursorRow, e.cursorCol = 1, 6
	e.hasSelection = true

	if got := e.SelectedText(); got != "1;\nSELECT" {
		t.Errorf("expected '1;\\nSELECT', got %q", got)
	}
}

func TestUndo_RestoresTypedRune(t *testing.T) {
	e := NewSQLEditor()
	e.lines = []string{"ab"}
	e.cursorRow, e.cursorCol = 0, 2

	e.TypedRune('c')

	e.mu.Lock()
	got := e.lines[0]
	e.mu.Unlock()
	if got != "abc" {
		t.Fatalf("expected 'abc' after typing, got %q", got)
	}

	e.doUndo()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lines[0] != "ab" {
		t.Errorf("expected 'ab' after undo, got %q", e.lines[0])
	}
}

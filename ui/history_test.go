package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
)

func TestHistory_ClearInvokesCallbackAndEmptiesList(t *testing.T) {
	h := NewHistory()
	h.SetEntries([]HistoryEntry{
		{ID: 1, SQL: "SELECT 1", Timestamp: time.Now()},
		{ID: 2, SQL: "SELECT 2", Timestamp: time.Now()},
	})

	called := false
	h.OnClear = func() { called = true }

	test.Tap(h.clearBtn)

	if !called {
		t.Error("expected OnClear to fire")
	}
	if len(h.entries) != 0 {
		t.Errorf("expected entries emptied, got %d", len(h.entries))
	}
}

func TestHistory_SelectPassesSQL(t *testing.T) {
	h := NewHistory()
	h.SetEntries([]HistoryEntry{
		{ID: 1, SQL: "SELECT * FROM users", Timestamp: time.Now()},
	})

	var got string
	h.OnSelect = func(sql string) { got = sql }

	h.list.OnSelected(0)

	if got != "SELECT * FROM users" {
		t.Errorf("expected selected SQL passed through, got %q", got)
	}
}

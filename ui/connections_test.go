package ui

import (
	"os"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestMain(m *testing.M) {
	test.NewApp()
	os.Exit(m.Run())
}

func TestParseNodeID_Connection(t *testing.T) {
	kind, connection, table := ParseNodeID("c:local-pg")
	if kind != "c" {
		t.Errorf("expected kind 'c', got %q", kind)
	}
	if connection != "local-pg" {
		t.Errorf("expected connection 'local-pg', got %q", connection)
	}
	if table != "" {
		t.Errorf("expected empty table, got %q", table)
	}
}

func TestParseNodeID_Table(t *testing.T) {
	kind, connection, table := ParseNodeID("t:local-pg/orders")
	if kind != "t" {
		t.Errorf("expected kind 't', got %q", kind)
	}
	if connection != "local-pg" {
		t.Errorf("expected connection 'local-pg', got %q", connection)
	}
	if table != "orders" {
		t.Errorf("expected table 'orders', got %q", table)
	}
}

func TestParseNodeID_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single char", "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, connection, table := ParseNodeID(tc.input)
			if kind != "" || connection != "" || table != "" {
				t.Errorf("expected all empty for %q, got kind=%q connection=%q table=%q",
					tc.input, kind, connection, table)
			}
		})
	}
}

func TestNodeIDConstructors(t *testing.T) {
	if got := ConnectionNodeID("local-pg"); got != "c:local-pg" {
		t.Errorf("ConnectionNodeID: expected 'c:local-pg', got %q", got)
	}
	if got := TableNodeID("local-pg", "orders"); got != "t:local-pg/orders" {
		t.Errorf("TableNodeID: expected 't:local-pg/orders', got %q", got)
	}
}

func TestSetConnections_BuildsVisible(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"alpha", "beta"})

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 2 {
		t.Fatalf("expected 2 visible nodes, got %d", len(e.visible))
	}
	if e.visible[0].label != "alpha" || e.visible[1].label != "beta" {
		t.Errorf("expected [alpha beta], got [%s %s]", e.visible[0].label, e.visible[1].label)
	}
	if !e.visible[0].isBranch {
		t.Error("expected connection nodes to be branches")
	}
}

func TestSetTables_ExpandShowsTables(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"local-pg"})
	e.SetTables("local-pg", []string{"orders", "users"})

	e.toggleBranch(ConnectionNodeID("local-pg"))

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 3 {
		t.Fatalf("expected 3 visible nodes after expand, got %d", len(e.visible))
	}
	if e.visible[1].label != "orders" || e.visible[2].label != "users" {
		t.Errorf("expected tables [orders users], got [%s %s]", e.visible[1].label, e.visible[2].label)
	}
	if e.visible[1].depth != 1 {
		t.Errorf("expected table depth 1, got %d", e.visible[1].depth)
	}
}

func TestToggleBranch_CollapseRemovesTables(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"local-pg"})
	e.SetTables("local-pg", []string{"orders", "users"})

	nid := ConnectionNodeID("local-pg")
	e.toggleBranch(nid)
	e.toggleBranch(nid)

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 1 {
		t.Fatalf("expected 1 visible node after collapse, got %d", len(e.visible))
	}
	if e.visible[0].expanded {
		t.Error("expected connection node collapsed")
	}
}

func TestToggleBranch_LazyLoad(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"local-pg"})

	loaded := make(chan string, 1)
	e.LoadTables = func(connection string) ([]string, error) {
		loaded <- connection
		return []string{"orders"}, nil
	}

	e.toggleBranch(ConnectionNodeID("local-pg"))

	if got := <-loaded; got != "local-pg" {
		t.Errorf("expected LoadTables called with 'local-pg', got %q", got)
	}
}

func TestSearchMatchesConnectionName(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"prod-pg", "staging-pg", "local-sqlite"})

	e.mu.Lock()
	e.searchFilter = "sqlite"
	e.mu.Unlock()
	e.rebuildVisible()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 1 {
		t.Fatalf("expected 1 visible node, got %d", len(e.visible))
	}
	if e.visible[0].label != "local-sqlite" {
		t.Errorf("expected 'local-sqlite', got %q", e.visible[0].label)
	}
}

func TestSearchMatchesTableNames(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"prod-pg"})
	e.SetTables("prod-pg", []string{"orders", "users"})

	e.mu.Lock()
	e.searchFilter = "orders"
	e.mu.Unlock()
	e.rebuildVisible()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 2 {
		t.Fatalf("expected connection + matching table, got %d nodes", len(e.visible))
	}
	if e.visible[0].label != "prod-pg" {
		t.Errorf("expected first node 'prod-pg', got %q", e.visible[0].label)
	}
	if !e.visible[0].expanded {
		t.Error("expected connection auto-expanded on table match")
	}
	if e.visible[1].label != "orders" {
		t.Errorf("expected matching table 'orders', got %q", e.visible[1].label)
	}
}

func TestSearchNoMatchHidesConnection(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"prod-pg"})
	e.SetTables("prod-pg", []string{"orders"})

	e.mu.Lock()
	e.searchFilter = "zzz"
	e.mu.Unlock()
	e.rebuildVisible()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 0 {
		t.Errorf("expected no visible nodes, got %d", len(e.visible))
	}
}

func TestSearchClearedRestoresAll(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"a", "b"})

	e.mu.Lock()
	e.searchFilter = "a"
	e.mu.Unlock()
	e.rebuildVisible()

	e.mu.Lock()
	e.searchFilter = ""
	e.mu.Unlock()
	e.rebuildVisible()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.visible) != 2 {
		t.Errorf("expected 2 visible nodes after clearing filter, got %d", len(e.visible))
	}
}

func TestDeleteButton_UsesSelectedConnection(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"local-pg", "local-sqlite"})
	e.SetTables("local-sqlite", []string{"orders"})

	var deleted string
	e.OnDeleteConnection = func(connection string) { deleted = connection }

	e.list.OnSelected(1)
	test.Tap(e.deleteBtn)

	if deleted != "local-sqlite" {
		t.Errorf("expected 'local-sqlite' deleted, got %q", deleted)
	}
}

func TestDeleteButton_NoSelectionDoesNothing(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"local-pg"})

	called := false
	e.OnDeleteConnection = func(string) { called = true }

	test.Tap(e.deleteBtn)

	if called {
		t.Error("expected no delete callback without a selection")
	}
}

func TestSetConnections_DropsStaleSelection(t *testing.T) {
	e := NewConnectionTree()
	e.SetConnections([]string{"local-pg"})
	e.SetTables("local-pg", []string{"orders"})
	e.list.OnSelected(0)

	e.SetConnections([]string{"other"})

	called := false
	e.OnDeleteConnection = func(string) { called = true }
	test.Tap(e.deleteBtn)

	if called {
		t.Error("expected selection cleared after the connection was removed")
	}
}

func TestCountDescendants(t *testing.T) {
	e := NewConnectionTree()
	e.mu.Lock()
	e.visible = []connNode{
		{id: "c:a", depth: 0, isBranch: true},
		{id: "t:a/t1", depth: 1},
		{id: "t:a/t2", depth: 1},
		{id: "c:b", depth: 0, isBranch: true},
	}
	got := e.countDescendants(0)
	e.mu.Unlock()

	if got != 2 {
		t.Errorf("expected 2 descendants, got %d", got)
	}
}

package main

import (
	"strings"
	"testing"

	"querydesk/db"
	"querydesk/sqltext"
	"querydesk/store"
)

func storeConnectionFixture() store.Connection {
	return store.Connection{
		ID:       1,
		Name:     "local-pg",
		Driver:   db.DriverPostgres,
		Host:     "localhost",
		Port:     5432,
		User:     "dev",
		Password: "secret",
		Database: "app",
	}
}

func TestEnforceQueryLimit_NoLimit(t *testing.T) {
	got := enforceQueryLimit("SELECT * FROM t", 50)
	if !strings.HasSuffix(got, "\nLIMIT 50") {
		t.Errorf("expected LIMIT 50 appended, got %q", got)
	}
}

func TestEnforceQueryLimit_ExistingLimitKept(t *testing.T) {
	input := "SELECT * FROM t LIMIT 5"
	got := enforceQueryLimit(input, 50)
	if got != input {
		t.Errorf("expected query unchanged, got %q", got)
	}
}

func TestEnforceQueryLimit_CaseInsensitive(t *testing.T) {
	input := "select * from t limit 20"
	got := enforceQueryLimit(input, 50)
	if got != input {
		t.Errorf("expected lowercase limit detected, got %q", got)
	}
}

func TestEnforceQueryLimit_TrailingSemicolon(t *testing.T) {
	got := enforceQueryLimit("SELECT * FROM t;", 50)
	if !strings.HasSuffix(got, "\nLIMIT 50") {
		t.Errorf("expected semicolon stripped and LIMIT 50 appended, got %q", got)
	}
	if strings.Contains(got, ";") {
		t.Errorf("expected semicolon removed, got %q", got)
	}
}

func TestEnforceQueryLimit_WithCTE(t *testing.T) {
	got := enforceQueryLimit("WITH x AS (SELECT 1) SELECT * FROM x", 50)
	if !strings.HasSuffix(got, "\nLIMIT 50") {
		t.Errorf("expected LIMIT 50 appended to CTE query, got %q", got)
	}
}

func TestEnforceQueryLimit_NonSelectUnchanged(t *testing.T) {
	input := "UPDATE t SET a = 1"
	got := enforceQueryLimit(input, 50)
	if got != input {
		t.Errorf("expected non-SELECT unchanged, got %q", got)
	}
}

func TestEnforceQueryLimit_MultilineSQL(t *testing.T) {
	input := "SELECT\n  id,\n  name\nFROM users\nWHERE active = true"
	got := enforceQueryLimit(input, 50)
	if !strings.HasSuffix(got, "\nLIMIT 50") {
		t.Errorf("expected LIMIT 50 appended to multiline SQL, got %q", got)
	}
}

func TestIsSchemaChange(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"CREATE TABLE t (id int)", true},
		{"  alter table t add column x int", true},
		{"DROP TABLE t", true},
		{"SELECT * FROM t", false},
		{"INSERT INTO t VALUES (1)", false},
		{"-- create nothing\nSELECT 1", false},
	}
	for _, tc := range tests {
		if got := isSchemaChange(tc.sql); got != tc.want {
			t.Errorf("isSchemaChange(%q): expected %v, got %v", tc.sql, tc.want, got)
		}
	}
}

func TestTableNames_Sorted(t *testing.T) {
	cat := &sqltext.Catalog{
		Tables: []sqltext.Table{
			{Name: "orders"},
			{Name: "accounts"},
			{Name: "users"},
		},
	}
	got := tableNames(cat)
	want := []string{"accounts", "orders", "users"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestFormatSchemaText(t *testing.T) {
	tbl := &sqltext.Table{
		Name: "users",
		Columns: []sqltext.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "name", Type: "text"},
		},
	}
	got := formatSchemaText(tbl)
	want := "id  integer  PRIMARY KEY\nname  text"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatResultText(t *testing.T) {
	r := &db.Result{
		Columns:  []string{"id", "name"},
		Rows:     [][]string{{"1", "alice"}, {"2", "bob"}},
		RowCount: 2,
	}
	got := formatResultText(r)
	want := "id | name\n1 | alice\n2 | bob\n(2 rows)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestOrderByRecency(t *testing.T) {
	tests := []struct {
		name   string
		names  []string
		recent []string
		want   []string
	}{
		{
			name:   "recent first, rest keep order",
			names:  []string{"a", "b", "c", "d"},
			recent: []string{"c", "a"},
			want:   []string{"c", "a", "b", "d"},
		},
		{
			name:   "unknown recent names ignored",
			names:  []string{"a", "b"},
			recent: []string{"gone", "b"},
			want:   []string{"b", "a"},
		},
		{
			name:   "no recency keeps order",
			names:  []string{"a", "b"},
			recent: nil,
			want:   []string{"a", "b"},
		},
		{
			name:   "duplicate recent entries collapse",
			names:  []string{"a", "b"},
			recent: []string{"b", "b"},
			want:   []string{"b", "a"},
		},
	}
	for _, tc := range tests {
		got := orderByRecency(tc.names, tc.recent)
		if len(got) != len(tc.want) {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("%s: index %d: expected %q, got %q", tc.name, i, tc.want[i], got[i])
			}
		}
	}
}

func TestConnConfig_MapsFields(t *testing.T) {
	cfg := connConfig(storeConnectionFixture())
	if cfg.Name != "local-pg" || cfg.Driver != db.DriverPostgres {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Host != "localhost" || cfg.Port != 5432 || cfg.Database != "app" {
		t.Errorf("network fields not mapped: %+v", cfg)
	}
}

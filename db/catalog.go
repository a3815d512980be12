package db

import (
	"context"
	"fmt"

	"querydesk/sqltext"
)

const postgresCatalogQuery = `
SELECT c.table_name, c.column_name, c.data_type, pk.column_name IS NOT NULL
FROM information_schema.columns c
LEFT JOIN (
	SELECT kcu.table_name, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public'
) pk ON pk.table_name = c.table_name AND pk.column_name = c.column_name
WHERE c.table_schema = 'public'
ORDER BY c.table_name, c.ordinal_position`

const sqliteTablesQuery = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

// FetchCatalog snapshots the connected database's tables and columns for
// autocomplete and the schema view.
func (c *Conn) FetchCatalog(ctx context.Context) (*sqltext.Catalog, error) {
	switch c.cfg.Driver {
	case DriverSQLite:
		return c.fetchSQLiteCatalog(ctx)
	default:
		return c.fetchPostgresCatalog(ctx)
	}
}

func (c *Conn) fetchPostgresCatalog(ctx context.Context) (*sqltext.Catalog, error) {
	rows, err := c.db.QueryContext(ctx, postgresCatalogQuery)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer rows.Close()

	cat := &sqltext.Catalog{}
	var current *sqltext.Table
	for rows.Next() {
		var table, column, dataType string
		var pk bool
		if err := rows.Scan(&table, &column, &dataType, &pk); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if current == nil || current.Name != table {
			cat.Tables = append(cat.Tables, sqltext.Table{Name: table})
			current = &cat.Tables[len(cat.Tables)-1]
		}
		current.Columns = append(current.Columns, sqltext.Column{
			Name:       column,
			Type:       dataType,
			PrimaryKey: pk,
		})
	}
	return cat, rows.Err()
}

func (c *Conn) fetchSQLiteCatalog(ctx context.Context) (*sqltext.Catalog, error) {
	rows, err := c.db.QueryContext(ctx, sqliteTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cat := &sqltext.Catalog{}
	for _, name := range names {
		cols, err := c.sqliteTableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		cat.Tables = append(cat.Tables, sqltext.Table{Name: name, Columns: cols})
	}
	return cat, nil
}

func (c *Conn) sqliteTableColumns(ctx context.Context, table string) ([]sqltext.Column, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []sqltext.Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, sqltext.Column{Name: name, Type: colType, PrimaryKey: pk > 0})
	}
	return cols, rows.Err()
}

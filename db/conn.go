package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const maxRows = 10000

// Result holds one query's output with every value rendered as text. Reads
// stop after maxRows; RowCount is the number of rows actually returned.
type Result struct {
	Columns  []string
	Rows     [][]string
	RowCount int64
	Duration time.Duration
}

// Conn is an open connection to one configured database.
type Conn struct {
	cfg Config
	db  *sql.DB
}

// Open connects and verifies the database is reachable.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	driver, err := cfg.driverName()
	if err != nil {
		return nil, err
	}
	handle, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Name, err)
	}
	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Name, err)
	}
	return &Conn{cfg: cfg, db: handle}, nil
}

func (c *Conn) Name() string {
	return c.cfg.Name
}

func (c *Conn) Close() error {
	return c.db.Close()
}

// Execute runs one statement and renders the result. Statements that return
// no rows (INSERT, UPDATE, DDL) yield a result with no columns and the
// affected row count.
func (c *Conn) Execute(ctx context.Context, sqlText string) (*Result, error) {
	start := time.Now()

	if isExecStatement(sqlText) {
		res, err := c.db.ExecContext(ctx, sqlText)
		if err != nil {
			return nil, fmt.Errorf("exec: %w", err)
		}
		affected, _ := res.RowsAffected()
		return &Result{RowCount: affected, Duration: time.Since(start)}, nil
	}

	rows, err := c.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := &Result{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for result.RowCount < maxRows && rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		strRow := make([]string, len(values))
		for i, v := range values {
			strRow[i] = renderValue(v)
		}
		result.Rows = append(result.Rows, strRow)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// isExecStatement reports whether a statement should run through ExecContext
// so the affected row count is reported instead of an empty rowset.
func isExecStatement(sqlText string) bool {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "TRUNCATE":
		// RETURNING clauses produce a rowset, so those go through Query.
		return !strings.Contains(strings.ToUpper(sqlText), "RETURNING")
	}
	return false
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

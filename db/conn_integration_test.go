//go:build integration

package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var testConn *Conn

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("app"),
		tcpostgres.WithUsername("dev"),
		tcpostgres.WithPassword("dev"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "container port: %v\n", err)
		os.Exit(1)
	}

	testConn, err = Open(ctx, Config{
		Name:     "it",
		Driver:   DriverPostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "dev",
		Password: "dev",
		Database: "app",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}

	_, err = testConn.Execute(ctx, `
		CREATE TABLE users (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT
		)`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create table: %v\n", err)
		os.Exit(1)
	}
	_, err = testConn.Execute(ctx,
		`INSERT INTO users (name, email) VALUES ('Alice', 'alice@example.com'), ('Bob', NULL)`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testConn.Close()
	if err := testcontainers.TerminateContainer(container); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

func TestExecuteAgainstPostgres(t *testing.T) {
	res, err := testConn.Execute(context.Background(), "SELECT id, name, email FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", res.RowCount)
	}
	if res.Rows[0][1] != "Alice" {
		t.Errorf("expected Alice, got %q", res.Rows[0][1])
	}
	if res.Rows[1][2] != "NULL" {
		t.Errorf("expected NULL email, got %q", res.Rows[1][2])
	}
	if res.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestFetchCatalogAgainstPostgres(t *testing.T) {
	cat, err := testConn.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	users := cat.Table("users")
	if users == nil {
		t.Fatalf("expected users table, got %+v", cat)
	}
	if len(users.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(users.Columns))
	}
	if users.Columns[0].Name != "id" || !users.Columns[0].PrimaryKey {
		t.Errorf("expected id primary key first, got %+v", users.Columns[0])
	}
	if users.Columns[1].Name != "name" || users.Columns[1].PrimaryKey {
		t.Errorf("unexpected name column: %+v", users.Columns[1])
	}
}

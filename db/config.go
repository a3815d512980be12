// Package db connects to PostgreSQL and SQLite databases through
// database/sql, runs queries and snapshots schema catalogs for the editor.
package db

import (
	"fmt"
	"net/url"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config describes one database connection. Path is only used by sqlite, the
// network fields only by postgres.
type Config struct {
	Name     string
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Path     string
}

// DSN renders the connection string for the configured driver.
func (c Config) DSN() string {
	switch c.Driver {
	case DriverSQLite:
		return c.Path
	default:
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:   "/" + c.Database,
		}
		if c.User != "" {
			if c.Password != "" {
				u.User = url.UserPassword(c.User, c.Password)
			} else {
				u.User = url.User(c.User)
			}
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return u.String()
	}
}

// driverName maps the config driver to the registered database/sql driver.
func (c Config) driverName() (string, error) {
	switch c.Driver {
	case DriverPostgres:
		return "pgx", nil
	case DriverSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unknown driver %q", c.Driver)
}

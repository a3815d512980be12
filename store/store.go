// Package store persists local application state in a SQLite database under
// the user's config directory: saved connections, query history, favorite
// queries, per-connection editor drafts and settings.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Connection is a saved database connection profile. Driver is "postgres" or
// "sqlite"; Path is only used by sqlite, the network fields only by postgres.
type Connection struct {
	ID       int64
	Name     string
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Path     string
}

type HistoryEntry struct {
	ID         int64
	SQL        string
	Connection string
	Timestamp  time.Time
	Duration   time.Duration
	RowCount   int64
	Error      string
}

type Favorite struct {
	ID         int64
	Name       string
	SQL        string
	Connection string
}

type Store struct {
	db *sql.DB
}

func dbPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, "querydesk")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "querydesk.db"), nil
}

func New() (*Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newWithDB(db)
}

// newWithDB wraps an already-open handle, so tests can run on :memory:.
func newWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS connections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			driver TEXT NOT NULL,
			host TEXT NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			user TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL DEFAULT '',
			db_name TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sql_text TEXT NOT NULL,
			connection TEXT NOT NULL,
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			row_count INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS favorites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			sql_text TEXT NOT NULL,
			connection TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS drafts (
			connection TEXT PRIMARY KEY,
			sql_text TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Connections

func (s *Store) SaveConnection(c Connection) (int64, error) {
	if c.ID != 0 {
		_, err := s.db.Exec(
			`UPDATE connections SET name = ?, driver = ?, host = ?, port = ?, user = ?, password = ?, db_name = ?, path = ? WHERE id = ?`,
			c.Name, c.Driver, c.Host, c.Port, c.User, c.Password, c.Database, c.Path, c.ID,
		)
		return c.ID, err
	}
	res, err := s.db.Exec(
		`INSERT INTO connections (name, driver, host, port, user, password, db_name, path) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Driver, c.Host, c.Port, c.User, c.Password, c.Database, c.Path,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListConnections() ([]Connection, error) {
	rows, err := s.db.Query(
		`SELECT id, name, driver, host, port, user, password, db_name, path FROM connections ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conns []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ID, &c.Name, &c.Driver, &c.Host, &c.Port, &c.User, &c.Password, &c.Database, &c.Path); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

func (s *Store) DeleteConnection(id int64) error {
	_, err := s.db.Exec(`DELETE FROM connections WHERE id = ?`, id)
	return err
}

// History

func (s *Store) AddHistory(sqlText, connection string, dur time.Duration, rowCount int64, queryErr string) error {
	_, err := s.db.Exec(
		`INSERT INTO history (sql_text, connection, timestamp, duration_ms, row_count, error) VALUES (?, ?, ?, ?, ?, ?)`,
		sqlText, connection, time.Now(), dur.Milliseconds(), rowCount, queryErr,
	)
	return err
}

func (s *Store) ListHistory(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.Query(
		`SELECT id, sql_text, connection, timestamp, duration_ms, row_count, error FROM history ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ms int64
		if err := rows.Scan(&e.ID, &e.SQL, &e.Connection, &e.Timestamp, &ms, &e.RowCount, &e.Error); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ClearHistory() error {
	_, err := s.db.Exec(`DELETE FROM history`)
	return err
}

// ListRecentConnections returns connection names ordered by most recent use,
// derived from history.
func (s *Store) ListRecentConnections(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT connection FROM history WHERE connection != '' GROUP BY connection ORDER BY MAX(timestamp) DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Favorites

func (s *Store) AddFavorite(name, sqlText, connection string) error {
	_, err := s.db.Exec(
		`INSERT INTO favorites (name, sql_text, connection) VALUES (?, ?, ?)`,
		name, sqlText, connection,
	)
	return err
}

func (s *Store) ListFavorites() ([]Favorite, error) {
	rows, err := s.db.Query(`SELECT id, name, sql_text, connection FROM favorites ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var favs []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.Name, &f.SQL, &f.Connection); err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

func (s *Store) DeleteFavorite(id int64) error {
	_, err := s.db.Exec(`DELETE FROM favorites WHERE id = ?`, id)
	return err
}

// Drafts

// SaveDraft stores the editor buffer for a connection so it survives
// restarts. An empty buffer clears the draft.
func (s *Store) SaveDraft(connection, sqlText string) error {
	if sqlText == "" {
		_, err := s.db.Exec(`DELETE FROM drafts WHERE connection = ?`, connection)
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO drafts (connection, sql_text) VALUES (?, ?) ON CONFLICT(connection) DO UPDATE SET sql_text = excluded.sql_text`,
		connection, sqlText,
	)
	return err
}

func (s *Store) GetDraft(connection string) (string, error) {
	var text string
	err := s.db.QueryRow(`SELECT sql_text FROM drafts WHERE connection = ?`, connection).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return text, err
}

// Settings

func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

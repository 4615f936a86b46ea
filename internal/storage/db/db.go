// Package db caches online mod metadata and API credentials in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Memory opens a cache that lives only as long as the connection.
const Memory = ":memory:"

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// DB is the metadata cache. The embedded *sql.DB is limited to one
// connection, so Memory databases stay consistent across calls.
type DB struct {
	*sql.DB
	path string
}

// New opens the cache at path, creating its directory, and brings the
// schema up to date.
func New(path string) (*DB, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// Path returns where the cache lives
func (d *DB) Path() string {
	return d.path
}

// SchemaVersion returns the highest applied migration
func (d *DB) SchemaVersion() (int, error) {
	var version int
	if err := d.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

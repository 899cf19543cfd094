// Package database opens aad's local SQLite database.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"adaptivealerting/aad/internal/config"

	_ "modernc.org/sqlite"
)

const dbFile = "aad.db"

var pathOverride string

// SetPath overrides DefaultPath. Tests pair it with ResetPath.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the override.
func ResetPath() { pathOverride = "" }

// DefaultPath returns the database location, next to the config file.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("database: %w", err)
	}
	return filepath.Join(dir, dbFile), nil
}

// Open opens (creating if needed) the SQLite database at path in WAL mode
// with a busy timeout, so a second aad process waits instead of failing.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("database: failed to create directory %s: %w", dir, err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: failed to open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: failed to open %s: %w", path, err)
	}
	return db, nil
}

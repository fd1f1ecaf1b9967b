package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultQuota mirrors the capacity browsers give a single storage origin
const DefaultQuota int64 = 5 << 20

// Store is a string key-value store backed by a SQLite ItemTable
type Store struct {
	db    *sql.DB
	path  string
	quota int64
}

// OpenStore opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory store. quota <= 0 disables the capacity check.
func OpenStore(path string, quota int64) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	// One connection keeps writes synchronous and :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS ItemTable (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("failed to create table: %w", err)}
	}

	return &Store{db: db, path: path, quota: quota}, nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// Quota returns the capacity budget in bytes (0 means unlimited)
func (s *Store) Quota() int64 {
	return s.quota
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key and whether it exists
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM ItemTable WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: s.path, Op: "get", Err: err}
	}
	return value, true, nil
}

// Set stores value under key, rejecting writes that exceed the quota
func (s *Store) Set(key, value string) error {
	if s.quota > 0 {
		var others int64
		err := s.db.QueryRow("SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM ItemTable WHERE key != ?", key).Scan(&others)
		if err != nil {
			return &StorageError{Path: s.path, Op: "set", Err: err}
		}
		size := others + int64(len(key)) + int64(len(value))
		if size > s.quota {
			return &QuotaExceededError{Key: key, Size: size, Quota: s.quota}
		}
	}

	_, err := s.db.Exec("INSERT INTO ItemTable (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	if err != nil {
		return &StorageError{Path: s.path, Op: "set", Err: err}
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM ItemTable WHERE key = ?", key); err != nil {
		return &StorageError{Path: s.path, Op: "remove", Err: err}
	}
	return nil
}

// Keys lists keys matching a LIKE pattern
func (s *Store) Keys(pattern string) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM ItemTable WHERE key LIKE ? ORDER BY key", pattern)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "get", Err: fmt.Errorf("query failed: %w", err)}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &StorageError{Path: s.path, Op: "get", Err: fmt.Errorf("scan failed: %w", err)}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Op: "get", Err: fmt.Errorf("rows iteration error: %w", err)}
	}
	return keys, nil
}

// Usage returns the number of bytes counted against the quota
func (s *Store) Usage() (int64, error) {
	var used int64
	err := s.db.QueryRow("SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM ItemTable").Scan(&used)
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "get", Err: err}
	}
	return used, nil
}

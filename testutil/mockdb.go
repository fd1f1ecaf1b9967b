package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const createItemTableSQL = `
	CREATE TABLE IF NOT EXISTS ItemTable (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`

// openItemDB opens a storage database file, creating the table if needed
func openItemDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create database directory: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.Exec(createItemTableSQL); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to create ItemTable: %v", err)
	}
	return db
}

// SeedItems writes raw key/value pairs straight into a storage database
func SeedItems(t *testing.T, path string, items map[string]string) {
	t.Helper()
	db := openItemDB(t, path)
	defer func() { _ = db.Close() }()

	stmt, err := db.Prepare("INSERT OR REPLACE INTO ItemTable (key, value) VALUES (?, ?)")
	if err != nil {
		t.Fatalf("Failed to prepare insert statement: %v", err)
	}
	defer func() { _ = stmt.Close() }()

	for key, value := range items {
		if _, err := stmt.Exec(key, value); err != nil {
			t.Fatalf("Failed to insert %s: %v", key, err)
		}
	}
}

// ReadItem reads a raw value from a storage database
func ReadItem(t *testing.T, path, key string) (string, bool) {
	t.Helper()
	db := openItemDB(t, path)
	defer func() { _ = db.Close() }()

	var value string
	err := db.QueryRow("SELECT value FROM ItemTable WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		t.Fatalf("Failed to read %s: %v", key, err)
	}
	return value, true
}

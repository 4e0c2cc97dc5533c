package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
// The pool is pinned to one connection: every connection to ":memory:"
// gets its own database, so a second pooled connection would see no tables.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.GetDB().SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database.GetDB()
}

// Package db owns the SQLite store: schema creation and the per-entity
// repositories the ingestion pipeline and query surface run on.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the SQL connection and creates the schema on open.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the SQLite database at the given DSN and ensures the
// schema exists.
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Verify we can actually connect to the database
	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	if err := createTables(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL,
			phone_raw TEXT,
			type TEXT NOT NULL,
			direction INTEGER NOT NULL,
			body TEXT,
			timestamp INTEGER NOT NULL,
			readable_date TEXT,
			contact_name TEXT,
			subscription_id TEXT,
			sim_slot TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL,
			phone_raw TEXT,
			call_type TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 0,
			timestamp INTEGER NOT NULL,
			readable_date TEXT,
			contact_name TEXT,
			subscription_id TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS phones (
			phone TEXT PRIMARY KEY,
			display_name TEXT,
			message_count INTEGER NOT NULL DEFAULT 0,
			last_message_at INTEGER,
			call_count INTEGER NOT NULL DEFAULT 0,
			last_call_at INTEGER,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS subscriptions (
			subscription_id TEXT PRIMARY KEY,
			phone_number TEXT,
			label TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_phone ON messages(phone);
		CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
		CREATE INDEX IF NOT EXISTS idx_messages_subscription ON messages(subscription_id);
		CREATE INDEX IF NOT EXISTS idx_calls_phone ON calls(phone);
		CREATE INDEX IF NOT EXISTS idx_calls_timestamp ON calls(timestamp);
		CREATE INDEX IF NOT EXISTS idx_calls_subscription ON calls(subscription_id);
	`)
	return err
}

// GetDB exposes the underlying connection for repository construction.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

func (d *Database) Close() error {
	if d == nil {
		return errors.New("database is nil")
	}

	if d.db == nil {
		return errors.New("database already closed")
	}

	err := d.db.Close()
	d.db = nil
	return err
}

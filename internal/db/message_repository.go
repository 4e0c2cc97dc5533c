package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

// DefaultInsertChunkSize bounds how many records go into a single insert
// transaction. Keeps statement payloads inside SQLite's parameter limits.
const DefaultInsertChunkSize = 100

// InsertStats reports the outcome of a batch insert. Skipped counts rows
// whose fingerprint already existed (the ignore-on-conflict policy treats
// those as successful dedups, not errors).
type InsertStats struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// MessageRepository defines the interface for message persistence.
type MessageRepository interface {
	BatchInsert(messages []*models.Message, chunkSize int) (*InsertStats, error)
	GetByID(id string) (*models.Message, error)
	GetByPhone(phone string, limit, offset int) ([]*models.Message, error)
	GetByPhoneAndSubscription(phone string, subscriptionID *string, limit, offset int) ([]*models.Message, error)
	CountByPhone(phone string, subscriptionID *string) (int, error)
}

type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

const insertMessageSQL = `
	INSERT OR IGNORE INTO messages
		(id, phone, phone_raw, type, direction, body, timestamp, readable_date, contact_name, subscription_id, sim_slot, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// BatchInsert persists records in chunks, one transaction per chunk.
// First write wins: a record whose id already exists is counted as skipped
// and the stored row is left untouched. A chunk failure aborts the batch;
// chunks committed before the failure stay persisted, so callers must treat
// ingestion as at-least-once rather than atomic.
func (r *messageRepository) BatchInsert(messages []*models.Message, chunkSize int) (*InsertStats, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultInsertChunkSize
	}

	stats := &InsertStats{}
	now := time.Now().UnixMilli()

	for start := 0; start < len(messages); start += chunkSize {
		end := start + chunkSize
		if end > len(messages) {
			end = len(messages)
		}

		if err := r.insertChunk(messages[start:end], now, stats); err != nil {
			return nil, fmt.Errorf("failed to insert message chunk at offset %d: %w", start, err)
		}
	}

	return stats, nil
}

func (r *messageRepository) insertChunk(chunk []*models.Message, now int64, stats *InsertStats) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(insertMessageSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, msg := range chunk {
		createdAt := msg.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}

		res, err := stmt.Exec(
			msg.ID,
			msg.Phone,
			msg.PhoneRaw,
			string(msg.Kind),
			int(msg.Direction),
			msg.Body,
			msg.Timestamp,
			msg.ReadableDate,
			msg.ContactName,
			msg.SubscriptionID,
			msg.SimSlot,
			createdAt,
		)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected > 0 {
			stats.Inserted++
		} else {
			stats.Skipped++
		}
	}

	return tx.Commit()
}

const selectMessageSQL = `
	SELECT id, phone, phone_raw, type, direction, body, timestamp, readable_date, contact_name, subscription_id, sim_slot, created_at
	FROM messages
`

// GetByID retrieves a message by its fingerprint, or nil when absent.
func (r *messageRepository) GetByID(id string) (*models.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("message ID cannot be empty")
	}

	row := r.db.QueryRow(selectMessageSQL+" WHERE id = ?", id)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}

	return msg, nil
}

// GetByPhone retrieves messages for a normalized phone, newest first.
func (r *messageRepository) GetByPhone(phone string, limit, offset int) ([]*models.Message, error) {
	return r.GetByPhoneAndSubscription(phone, nil, limit, offset)
}

// GetByPhoneAndSubscription retrieves messages for a phone, optionally
// restricted to one device subscription.
func (r *messageRepository) GetByPhoneAndSubscription(phone string, subscriptionID *string, limit, offset int) ([]*models.Message, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	query := selectMessageSQL + " WHERE phone = ?"
	args := []interface{}{phone}
	if subscriptionID != nil {
		query += " AND subscription_id = ?"
		args = append(args, *subscriptionID)
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// CountByPhone counts messages for a phone, optionally scoped to one
// subscription.
func (r *messageRepository) CountByPhone(phone string, subscriptionID *string) (int, error) {
	query := "SELECT COUNT(*) FROM messages WHERE phone = ?"
	args := []interface{}{phone}
	if subscriptionID != nil {
		query += " AND subscription_id = ?"
		args = append(args, *subscriptionID)
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		msg       models.Message
		kind      string
		direction int
	)

	err := row.Scan(
		&msg.ID,
		&msg.Phone,
		&msg.PhoneRaw,
		&kind,
		&direction,
		&msg.Body,
		&msg.Timestamp,
		&msg.ReadableDate,
		&msg.ContactName,
		&msg.SubscriptionID,
		&msg.SimSlot,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	msg.Kind = models.MessageKind(kind)
	msg.Direction = models.DirectionFromCode(direction)
	return &msg, nil
}

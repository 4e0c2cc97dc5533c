package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

// CallRepository defines the interface for call log persistence.
type CallRepository interface {
	BatchInsert(calls []*models.Call, chunkSize int) (*InsertStats, error)
	GetByID(id string) (*models.Call, error)
	List(limit, offset int) ([]*models.Call, error)
	GetByPhone(phone string, subscriptionID *string, limit, offset int) ([]*models.Call, error)
	CountByPhone(phone string, subscriptionID *string) (int, error)
}

type callRepository struct {
	db *sql.DB
}

// NewCallRepository creates a new CallRepository.
func NewCallRepository(db *sql.DB) CallRepository {
	return &callRepository{db: db}
}

const insertCallSQL = `
	INSERT OR IGNORE INTO calls
		(id, phone, phone_raw, call_type, duration, timestamp, readable_date, contact_name, subscription_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// BatchInsert persists call records in chunks under the same first-write-wins
// policy and partial-commit semantics as message inserts.
func (r *callRepository) BatchInsert(calls []*models.Call, chunkSize int) (*InsertStats, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultInsertChunkSize
	}

	stats := &InsertStats{}
	now := time.Now().UnixMilli()

	for start := 0; start < len(calls); start += chunkSize {
		end := start + chunkSize
		if end > len(calls) {
			end = len(calls)
		}

		if err := r.insertChunk(calls[start:end], now, stats); err != nil {
			return nil, fmt.Errorf("failed to insert call chunk at offset %d: %w", start, err)
		}
	}

	return stats, nil
}

func (r *callRepository) insertChunk(chunk []*models.Call, now int64, stats *InsertStats) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(insertCallSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, call := range chunk {
		createdAt := call.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}

		res, err := stmt.Exec(
			call.ID,
			call.Phone,
			call.PhoneRaw,
			string(call.CallType),
			call.Duration,
			call.Timestamp,
			call.ReadableDate,
			call.ContactName,
			call.SubscriptionID,
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

const selectCallSQL = `
	SELECT id, phone, phone_raw, call_type, duration, timestamp, readable_date, contact_name, subscription_id, created_at
	FROM calls
`

// GetByID retrieves a call by its fingerprint, or nil when absent.
func (r *callRepository) GetByID(id string) (*models.Call, error) {
	if id == "" {
		return nil, fmt.Errorf("call ID cannot be empty")
	}

	row := r.db.QueryRow(selectCallSQL+" WHERE id = ?", id)
	call, err := scanCall(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call by ID: %w", err)
	}

	return call, nil
}

// List retrieves calls across all phones, newest first.
func (r *callRepository) List(limit, offset int) ([]*models.Call, error) {
	rows, err := r.db.Query(selectCallSQL+" ORDER BY timestamp DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	return collectCalls(rows)
}

// GetByPhone retrieves calls for a normalized phone, optionally restricted
// to one device subscription, newest first.
func (r *callRepository) GetByPhone(phone string, subscriptionID *string, limit, offset int) ([]*models.Call, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	query := selectCallSQL + " WHERE phone = ?"
	args := []interface{}{phone}
	if subscriptionID != nil {
		query += " AND subscription_id = ?"
		args = append(args, *subscriptionID)
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	return collectCalls(rows)
}

// CountByPhone counts calls for a phone, optionally scoped to one
// subscription.
func (r *callRepository) CountByPhone(phone string, subscriptionID *string) (int, error) {
	query := "SELECT COUNT(*) FROM calls WHERE phone = ?"
	args := []interface{}{phone}
	if subscriptionID != nil {
		query += " AND subscription_id = ?"
		args = append(args, *subscriptionID)
	}

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count calls: %w", err)
	}
	return count, nil
}

func collectCalls(rows *sql.Rows) ([]*models.Call, error) {
	var calls []*models.Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func scanCall(row rowScanner) (*models.Call, error) {
	var (
		call     models.Call
		callType string
	)

	err := row.Scan(
		&call.ID,
		&call.Phone,
		&call.PhoneRaw,
		&callType,
		&call.Duration,
		&call.Timestamp,
		&call.ReadableDate,
		&call.ContactName,
		&call.SubscriptionID,
		&call.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	call.CallType = models.CallType(callType)
	return &call, nil
}

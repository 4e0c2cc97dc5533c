package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

// DefaultStatsChunkSize bounds how many phone aggregates are recomputed
// inside a single transaction. Independent of the record-insert chunk size.
const DefaultStatsChunkSize = 50

// PhoneRepository defines the interface for the per-phone activity
// aggregates.
type PhoneRepository interface {
	UpsertStats(phone string, displayName *string) error
	UpsertStatsBatch(entries []models.PhoneStatsEntry, chunkSize int) error
	Get(phone string) (*models.Phone, error)
	List(limit, offset int) ([]*models.Phone, error)
}

type phoneRepository struct {
	db *sql.DB
}

// NewPhoneRepository creates a new PhoneRepository.
func NewPhoneRepository(db *sql.DB) PhoneRepository {
	return &phoneRepository{db: db}
}

// upsertStatsSQL recomputes every derived field from a live scan of the
// messages and calls tables. Because the aggregate is always rebuilt from
// source rows instead of incremented, a lost or corrupted row is repaired
// by the next recompute touching that phone, and concurrent recomputes
// converge on the same value. Display name keeps the existing value unless
// the incoming one is non-null.
const upsertStatsSQL = `
	INSERT INTO phones (phone, display_name, message_count, last_message_at, call_count, last_call_at, updated_at)
	VALUES (?, ?,
		(SELECT COUNT(*) FROM messages WHERE phone = ?),
		(SELECT MAX(timestamp) FROM messages WHERE phone = ?),
		(SELECT COUNT(*) FROM calls WHERE phone = ?),
		(SELECT MAX(timestamp) FROM calls WHERE phone = ?),
		?)
	ON CONFLICT(phone) DO UPDATE SET
		display_name = COALESCE(excluded.display_name, phones.display_name),
		message_count = excluded.message_count,
		last_message_at = excluded.last_message_at,
		call_count = excluded.call_count,
		last_call_at = excluded.last_call_at,
		updated_at = excluded.updated_at
`

// UpsertStats recomputes one phone's aggregate row.
func (r *phoneRepository) UpsertStats(phone string, displayName *string) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}

	now := time.Now().UnixMilli()
	_, err := r.db.Exec(upsertStatsSQL, phone, displayName, phone, phone, phone, phone, now)
	if err != nil {
		return fmt.Errorf("failed to upsert phone stats: %w", err)
	}
	return nil
}

// UpsertStatsBatch recomputes aggregates for every listed phone, chunked
// into transactions.
func (r *phoneRepository) UpsertStatsBatch(entries []models.PhoneStatsEntry, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultStatsChunkSize
	}

	for start := 0; start < len(entries); start += chunkSize {
		end := start + chunkSize
		if end > len(entries) {
			end = len(entries)
		}

		if err := r.upsertChunk(entries[start:end]); err != nil {
			return fmt.Errorf("failed to upsert phone stats chunk at offset %d: %w", start, err)
		}
	}

	return nil
}

func (r *phoneRepository) upsertChunk(chunk []models.PhoneStatsEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(upsertStatsSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, entry := range chunk {
		if entry.Phone == "" {
			continue
		}
		if _, err := stmt.Exec(entry.Phone, entry.DisplayName, entry.Phone, entry.Phone, entry.Phone, entry.Phone, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const selectPhoneSQL = `
	SELECT phone, display_name, message_count, last_message_at, call_count, last_call_at, updated_at
	FROM phones
`

// Get retrieves one phone aggregate, or nil when absent.
func (r *phoneRepository) Get(phone string) (*models.Phone, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	var p models.Phone
	err := r.db.QueryRow(selectPhoneSQL+" WHERE phone = ?", phone).Scan(
		&p.Phone,
		&p.DisplayName,
		&p.MessageCount,
		&p.LastMessageAt,
		&p.CallCount,
		&p.LastCallAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phone: %w", err)
	}

	return &p, nil
}

// List retrieves phone aggregates ordered by most recent activity.
func (r *phoneRepository) List(limit, offset int) ([]*models.Phone, error) {
	rows, err := r.db.Query(
		selectPhoneSQL+" ORDER BY MAX(COALESCE(last_message_at, 0), COALESCE(last_call_at, 0)) DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query phones: %w", err)
	}
	defer rows.Close()

	var phones []*models.Phone
	for rows.Next() {
		var p models.Phone
		err := rows.Scan(
			&p.Phone,
			&p.DisplayName,
			&p.MessageCount,
			&p.LastMessageAt,
			&p.CallCount,
			&p.LastCallAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phone: %w", err)
		}
		phones = append(phones, &p)
	}

	return phones, rows.Err()
}

package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

// SubscriptionRepository defines the interface for device SIM/line records.
type SubscriptionRepository interface {
	Upsert(sub *models.Subscription) error
	InsertIfMissing(sub *models.Subscription) (bool, error)
	Get(id string) (*models.Subscription, error)
	List(activeOnly bool) ([]*models.Subscription, error)
	Deactivate(id string) (bool, error)
	DistinctDataSubscriptionIDs() ([]string, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Upsert creates or replaces the mutable fields of a subscription.
// created_at is preserved on conflict.
func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if sub == nil || sub.SubscriptionID == "" {
		return fmt.Errorf("subscription ID is required")
	}

	now := time.Now().UnixMilli()
	_, err := r.db.Exec(`
		INSERT INTO subscriptions (subscription_id, phone_number, label, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(subscription_id) DO UPDATE SET
			phone_number = excluded.phone_number,
			label = excluded.label,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`, sub.SubscriptionID, sub.PhoneNumber, sub.Label, sub.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// InsertIfMissing adds a subscription only when its ID is not yet known.
// Returns true when a row was actually inserted. Running it twice for the
// same ID is a no-op the second time, which is what keeps discovery
// idempotent.
func (r *subscriptionRepository) InsertIfMissing(sub *models.Subscription) (bool, error) {
	if sub == nil || sub.SubscriptionID == "" {
		return false, fmt.Errorf("subscription ID is required")
	}

	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO subscriptions (subscription_id, phone_number, label, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.SubscriptionID, sub.PhoneNumber, sub.Label, sub.IsActive, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert subscription: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const selectSubscriptionSQL = `
	SELECT subscription_id, phone_number, label, is_active, created_at, updated_at
	FROM subscriptions
`

// Get retrieves one subscription, or nil when absent.
func (r *subscriptionRepository) Get(id string) (*models.Subscription, error) {
	if id == "" {
		return nil, fmt.Errorf("subscription ID cannot be empty")
	}

	var sub models.Subscription
	err := r.db.QueryRow(selectSubscriptionSQL+" WHERE subscription_id = ?", id).Scan(
		&sub.SubscriptionID,
		&sub.PhoneNumber,
		&sub.Label,
		&sub.IsActive,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// List retrieves subscriptions, optionally only active ones.
func (r *subscriptionRepository) List(activeOnly bool) ([]*models.Subscription, error) {
	query := selectSubscriptionSQL
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY subscription_id"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		var sub models.Subscription
		err := rows.Scan(
			&sub.SubscriptionID,
			&sub.PhoneNumber,
			&sub.Label,
			&sub.IsActive,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &sub)
	}

	return subs, rows.Err()
}

// Deactivate soft-deletes a subscription. Returns false when the ID is
// unknown. Rows are never hard-deleted; historical records keep pointing
// at a resolvable subscription.
func (r *subscriptionRepository) Deactivate(id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("subscription ID cannot be empty")
	}

	res, err := r.db.Exec(
		"UPDATE subscriptions SET is_active = 0, updated_at = ? WHERE subscription_id = ?",
		time.Now().UnixMilli(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DistinctDataSubscriptionIDs scans the subscription IDs actually present
// in message and call data, feeding subscription discovery.
func (r *subscriptionRepository) DistinctDataSubscriptionIDs() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT subscription_id FROM messages WHERE subscription_id IS NOT NULL
		UNION
		SELECT DISTINCT subscription_id FROM calls WHERE subscription_id IS NOT NULL
		ORDER BY subscription_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan data subscription IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subscription ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

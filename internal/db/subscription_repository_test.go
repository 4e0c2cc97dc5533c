package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

func TestSubscriptionUpsertAndGet(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSubscriptionRepository(conn)

	sub := &models.Subscription{
		SubscriptionID: "2",
		PhoneNumber:    strPtr("+61450123456"),
		Label:          "Personal",
		IsActive:       true,
	}
	require.NoError(t, repo.Upsert(sub))

	stored, err := repo.Get("2")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Personal", stored.Label)
	assert.True(t, stored.IsActive)

	// Upsert updates mutable fields in place.
	sub.Label = "Work"
	require.NoError(t, repo.Upsert(sub))
	stored, err = repo.Get("2")
	require.NoError(t, err)
	assert.Equal(t, "Work", stored.Label)

	missing, err := repo.Get("99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSubscriptionDeactivate(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSubscriptionRepository(conn)

	require.NoError(t, repo.Upsert(&models.Subscription{SubscriptionID: "1", Label: "SIM 1", IsActive: true}))

	ok, err := repo.Deactivate("1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Soft delete: the row survives, inactive.
	stored, err := repo.Get("1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsActive)

	active, err := repo.List(true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.List(false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err = repo.Deactivate("99")
	require.NoError(t, err)
	assert.False(t, ok, "unknown ID reports not found")
}

func TestSubscriptionInsertIfMissing(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewSubscriptionRepository(conn)

	sub := models.NewDiscoveredSubscription("3")
	inserted, err := repo.InsertIfMissing(sub)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second run is a no-op and does not disturb the existing row.
	require.NoError(t, repo.Upsert(&models.Subscription{SubscriptionID: "3", Label: "Renamed", IsActive: true}))
	inserted, err = repo.InsertIfMissing(models.NewDiscoveredSubscription("3"))
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := repo.Get("3")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Label)
}

func TestDistinctDataSubscriptionIDs(t *testing.T) {
	conn := setupTestDB(t)
	msgRepo := NewMessageRepository(conn)
	callRepo := NewCallRepository(conn)
	repo := NewSubscriptionRepository(conn)

	m1 := testMessage("+61450123456", 1000, "a")
	m1.SubscriptionID = strPtr("2")
	m2 := testMessage("+61450123456", 2000, "b") // untagged
	_, err := msgRepo.BatchInsert([]*models.Message{m1, m2}, 0)
	require.NoError(t, err)

	c1 := testCall("+61450123456", 3000, 1, 30)
	c1.SubscriptionID = strPtr("5")
	c2 := testCall("+61450123456", 4000, 2, 15)
	c2.SubscriptionID = strPtr("2") // duplicate across tables
	_, err = callRepo.BatchInsert([]*models.Call{c1, c2}, 0)
	require.NoError(t, err)

	ids, err := repo.DistinctDataSubscriptionIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5"}, ids)
}

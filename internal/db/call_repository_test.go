package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkind-fall/marketing-sms-backup/internal/ingest"
	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

func testCall(phone string, timestamp int64, typeCode, duration int) *models.Call {
	return &models.Call{
		ID:        ingest.CallID(phone, timestamp, typeCode, duration),
		Phone:     phone,
		PhoneRaw:  strPtr(phone),
		CallType:  models.CallTypeFromCode(typeCode),
		Duration:  duration,
		Timestamp: timestamp,
	}
}

func TestCallBatchInsertIdempotent(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewCallRepository(conn)

	calls := []*models.Call{
		testCall("+61450123456", 1000, 1, 60),
		testCall("+61450123456", 2000, 2, 0),
	}

	first, err := repo.BatchInsert(calls, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Skipped)

	second, err := repo.BatchInsert(calls, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Skipped)
}

func TestCallGetByID(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewCallRepository(conn)

	call := testCall("+61450123456", 1000, 3, 0)
	call.ContactName = strPtr("Bob")
	_, err := repo.BatchInsert([]*models.Call{call}, 0)
	require.NoError(t, err)

	stored, err := repo.GetByID(call.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.CallMissed, stored.CallType)
	assert.Equal(t, 0, stored.Duration)
	require.NotNil(t, stored.ContactName)
	assert.Equal(t, "Bob", *stored.ContactName)
	assert.NotZero(t, stored.CreatedAt)

	missing, err := repo.GetByID("ffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCallListAndFilter(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewCallRepository(conn)

	a := testCall("+61450123456", 1000, 1, 30)
	a.SubscriptionID = strPtr("2")
	b := testCall("+61450123456", 3000, 2, 45)
	c := testCall("+61298765432", 2000, 1, 10)

	_, err := repo.BatchInsert([]*models.Call{a, b, c}, 0)
	require.NoError(t, err)

	all, err := repo.List(10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3000), all[0].Timestamp, "newest first")

	byPhone, err := repo.GetByPhone("+61450123456", nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byPhone, 2)

	bySub, err := repo.GetByPhone("+61450123456", strPtr("2"), 10, 0)
	require.NoError(t, err)
	require.Len(t, bySub, 1)
	assert.Equal(t, a.ID, bySub[0].ID)

	count, err := repo.CountByPhone("+61450123456", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

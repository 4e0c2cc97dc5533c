package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/internal/services"
)

// testEnv wires real repositories over an in-memory database so handler
// tests exercise the full ingestion and query path.
type testEnv struct {
	messages db.MessageRepository
	calls    db.CallRepository
	phones   db.PhoneRepository
	subs     db.SubscriptionRepository
	ingest   *services.IngestService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to ":memory:" gets its own database, so the pool
	// must be pinned to one connection.
	database.GetDB().SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = database.Close()
	})

	env := &testEnv{
		messages: db.NewMessageRepository(database.GetDB()),
		calls:    db.NewCallRepository(database.GetDB()),
		phones:   db.NewPhoneRepository(database.GetDB()),
		subs:     db.NewSubscriptionRepository(database.GetDB()),
	}
	env.ingest = services.NewIngestService(env.messages, env.calls, env.phones, env.subs, 0, 0)
	return env
}

func strPtr(s string) *string {
	return &s
}

package handlers

import (
	"github.com/unkind-fall/marketing-sms-backup/internal/models"
	"github.com/unkind-fall/marketing-sms-backup/internal/services"
)

// IngestServiceInterface defines the contract for ingestion operations
// This interface is used for dependency injection and testing
type IngestServiceInterface interface {
	IngestMessages(msgs []*models.Message) (*services.IngestResult, error)
	IngestCalls(calls []*models.Call) (*services.IngestResult, error)
	IngestSingleMessage(msg *models.Message) (bool, error)
	DiscoverSubscriptions() ([]string, error)
}

// SyncServiceInterface defines the contract for sync trigger operations
// This interface is used for dependency injection and testing
type SyncServiceInterface interface {
	Run() *services.SyncResult
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// SyncHandler handles remote archive sync triggers
type SyncHandler struct {
	syncService SyncServiceInterface
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService SyncServiceInterface) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// Run handles a one-shot sync trigger (POST /api/sync)
// Fetches the latest remote archive and runs it through the ingestion
// pipeline. Failures come back in the result body, not as a 5xx, so the
// caller can distinguish "no archive" from "ingest failed".
func (h *SyncHandler) Run(c *gin.Context) {
	if h.syncService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Remote sync is not configured"})
		return
	}

	result := h.syncService.Run()

	logger.Info("Sync trigger finished",
		zap.Bool("success", result.Success),
		zap.String("file", result.FileName),
		zap.Int("inserted", result.Inserted),
	)

	c.JSON(http.StatusOK, result)
}

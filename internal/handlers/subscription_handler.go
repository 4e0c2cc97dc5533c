package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/internal/models"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// SubscriptionHandler handles SIM/line management requests
type SubscriptionHandler struct {
	subs          db.SubscriptionRepository
	ingestService IngestServiceInterface
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subs db.SubscriptionRepository, ingestService IngestServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs:          subs,
		ingestService: ingestService,
	}
}

// List handles subscription listing (GET /api/subscriptions)
// Pass active=true to exclude deactivated rows.
func (h *SubscriptionHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	subs, err := h.subs.List(activeOnly)
	if err != nil {
		logger.Error("Failed to list subscriptions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscriptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// Get handles single subscription lookup (GET /api/subscriptions/:id)
func (h *SubscriptionHandler) Get(c *gin.Context) {
	id := c.Param("id")

	sub, err := h.subs.Get(id)
	if err != nil {
		logger.Error("Failed to get subscription", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscription"})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	c.JSON(http.StatusOK, sub)
}

// Upsert handles subscription create-or-update (PUT /api/subscriptions/:id)
// Creating and relabeling share this path because subscription IDs are
// device-assigned, not server-assigned.
func (h *SubscriptionHandler) Upsert(c *gin.Context) {
	id := c.Param("id")

	var req models.UpsertSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid subscription request", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Label is required"})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UnixMilli()
	sub := &models.Subscription{
		SubscriptionID: id,
		PhoneNumber:    req.PhoneNumber,
		Label:          req.Label,
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.subs.Upsert(sub); err != nil {
		logger.Error("Failed to upsert subscription", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	saved, err := h.subs.Get(id)
	if err != nil || saved == nil {
		logger.Error("Failed to reload subscription", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	logger.Info("Subscription saved",
		zap.String("id", id),
		zap.String("label", saved.Label),
	)

	c.JSON(http.StatusOK, saved)
}

// Deactivate handles subscription soft-delete (DELETE /api/subscriptions/:id)
// Rows are deactivated rather than removed so historical messages keep
// their subscription reference.
func (h *SubscriptionHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")

	found, err := h.subs.Deactivate(id)
	if err != nil {
		logger.Error("Failed to deactivate subscription", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate subscription"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	logger.Info("Subscription deactivated", zap.String("id", id))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Discover handles subscription discovery (POST /api/subscriptions/discover)
// Scans message and call data for subscription IDs and registers any that
// have no row yet with a placeholder label.
func (h *SubscriptionHandler) Discover(c *gin.Context) {
	ids, err := h.ingestService.DiscoverSubscriptions()
	if err != nil {
		logger.Error("Subscription discovery failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to discover subscriptions"})
		return
	}

	logger.Info("Subscription discovery complete", zap.Int("count", len(ids)))

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"subscription_ids": ids,
	})
}

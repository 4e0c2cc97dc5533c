package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
	"github.com/unkind-fall/marketing-sms-backup/internal/ingest"
	"github.com/unkind-fall/marketing-sms-backup/internal/models"
	"github.com/unkind-fall/marketing-sms-backup/internal/phone"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// WebhookHandler handles single-message pushes from forwarder apps
type WebhookHandler struct {
	ingestService IngestServiceInterface
	cfg           *config.Config
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(ingestService IngestServiceInterface, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		ingestService: ingestService,
		cfg:           cfg,
	}
}

// WebhookMessageRequest is the payload forwarder apps push on message
// arrival. Timestamp is epoch milliseconds; zero means "now". Code is a
// TOTP value, required only when a webhook TOTP secret is configured.
type WebhookMessageRequest struct {
	From      string `json:"from" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Timestamp int64  `json:"timestamp"`
	SimSlot   string `json:"sim_slot"`
	Code      string `json:"code"`
}

// ReceiveMessage handles single-message ingest (POST /api/webhook)
// The message is treated as received and runs through the same
// normalization, fingerprinting and aggregate path as archive ingestion.
func (h *WebhookHandler) ReceiveMessage(c *gin.Context) {
	var req WebhookMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if h.cfg.Auth.WebhookTOTPSecret != "" {
		if !totp.Validate(req.Code, h.cfg.Auth.WebhookTOTPSecret) {
			logger.Warn("Webhook TOTP verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code"})
			return
		}
	}

	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	normalized := phone.Normalize(req.From)
	body := req.Content
	readableDate := time.UnixMilli(timestamp).Format(time.RFC3339)

	msg := &models.Message{
		Phone:        normalized.Normalized,
		PhoneRaw:     &req.From,
		Kind:         models.KindSMS,
		Direction:    models.DirectionReceived,
		Body:         &body,
		Timestamp:    timestamp,
		ReadableDate: &readableDate,
	}
	if req.SimSlot != "" {
		msg.SimSlot = &req.SimSlot
	}
	msg.ID = ingest.MessageID(msg.Phone, msg.Timestamp, msg.Kind, msg.Direction, msg.Body)

	inserted, err := h.ingestService.IngestSingleMessage(msg)
	if err != nil {
		logger.Error("Webhook ingestion failed",
			zap.String("phone", msg.Phone),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	logger.Info("Webhook message processed",
		zap.String("id", msg.ID),
		zap.String("phone", msg.Phone),
		zap.Bool("inserted", inserted),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"id":       msg.ID,
		"phone":    msg.Phone,
		"inserted": inserted,
	})
}

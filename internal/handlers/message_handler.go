package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

const maxPageSize = 500

// MessageHandler handles message query requests
type MessageHandler struct {
	messages db.MessageRepository
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages db.MessageRepository) *MessageHandler {
	return &MessageHandler{
		messages: messages,
	}
}

// List handles message listing (GET /api/messages)
// Requires a phone query parameter; subscription, limit and offset are
// optional. Limit is capped at 500.
func (h *MessageHandler) List(c *gin.Context) {
	phoneKey := c.Query("phone")
	if phoneKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone is required"})
		return
	}

	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	subscriptionID := optionalQuery(c, "subscription")

	messages, err := h.messages.GetByPhoneAndSubscription(phoneKey, subscriptionID, limit, offset)
	if err != nil {
		logger.Error("Failed to list messages",
			zap.String("phone", phoneKey),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages"})
		return
	}

	count, err := h.messages.CountByPhone(phoneKey, subscriptionID)
	if err != nil {
		logger.Error("Failed to count messages",
			zap.String("phone", phoneKey),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"total":    count,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get handles single message lookup (GET /api/messages/:id)
func (h *MessageHandler) Get(c *gin.Context) {
	id := c.Param("id")

	msg, err := h.messages.GetByID(id)
	if err != nil {
		logger.Error("Failed to get message", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get message"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// parsePagination reads limit/offset query parameters with defaults of
// 100/0. Writes a 400 response and returns ok=false on invalid values.
func parsePagination(c *gin.Context) (limit, offset int, ok bool) {
	limit = 100
	offset = 0

	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit value"})
			return 0, 0, false
		}
		limit = l
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil || o < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset value"})
			return 0, 0, false
		}
		offset = o
	}

	return limit, offset, true
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}

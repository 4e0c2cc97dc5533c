package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// CallHandler handles call log query requests
type CallHandler struct {
	calls    db.CallRepository
	messages db.MessageRepository
}

// NewCallHandler creates a new call handler
func NewCallHandler(calls db.CallRepository, messages db.MessageRepository) *CallHandler {
	return &CallHandler{
		calls:    calls,
		messages: messages,
	}
}

// List handles call listing (GET /api/calls)
// Phone and subscription filters are optional. With include=messages and a
// phone filter, the response also carries the phone's message history.
func (h *CallHandler) List(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	phoneKey := c.Query("phone")
	subscriptionID := optionalQuery(c, "subscription")
	includeMessages := c.Query("include") == "messages"

	if includeMessages && phoneKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "include=messages requires a phone filter"})
		return
	}

	var calls interface{}
	var err error
	if phoneKey != "" {
		calls, err = h.calls.GetByPhone(phoneKey, subscriptionID, limit, offset)
	} else {
		calls, err = h.calls.List(limit, offset)
	}
	if err != nil {
		logger.Error("Failed to list calls",
			zap.String("phone", phoneKey),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get calls"})
		return
	}

	response := gin.H{
		"calls":  calls,
		"limit":  limit,
		"offset": offset,
	}

	if phoneKey != "" {
		count, countErr := h.calls.CountByPhone(phoneKey, subscriptionID)
		if countErr != nil {
			logger.Error("Failed to count calls",
				zap.String("phone", phoneKey),
				zap.Error(countErr),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get calls"})
			return
		}
		response["total"] = count
	}

	if includeMessages {
		messages, msgErr := h.messages.GetByPhoneAndSubscription(phoneKey, subscriptionID, limit, 0)
		if msgErr != nil {
			logger.Error("Failed to load message history",
				zap.String("phone", phoneKey),
				zap.Error(msgErr),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get calls"})
			return
		}
		response["messages"] = messages
	}

	c.JSON(http.StatusOK, response)
}

// Get handles single call lookup (GET /api/calls/:id)
func (h *CallHandler) Get(c *gin.Context) {
	id := c.Param("id")

	call, err := h.calls.GetByID(id)
	if err != nil {
		logger.Error("Failed to get call", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get call"})
		return
	}
	if call == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Call not found"})
		return
	}

	c.JSON(http.StatusOK, call)
}

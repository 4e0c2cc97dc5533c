package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// PhoneHandler handles phone aggregate query requests
type PhoneHandler struct {
	phones db.PhoneRepository
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(phones db.PhoneRepository) *PhoneHandler {
	return &PhoneHandler{
		phones: phones,
	}
}

// List handles phone listing (GET /api/phones)
// Returns aggregates ordered by most recent activity.
func (h *PhoneHandler) List(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	phones, err := h.phones.List(limit, offset)
	if err != nil {
		logger.Error("Failed to list phones", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get phones"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"phones": phones,
		"limit":  limit,
		"offset": offset,
	})
}

// Get handles single phone lookup (GET /api/phones/:phone)
func (h *PhoneHandler) Get(c *gin.Context) {
	phoneKey := c.Param("phone")

	phoneAgg, err := h.phones.Get(phoneKey)
	if err != nil {
		logger.Error("Failed to get phone", zap.String("phone", phoneKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get phone"})
		return
	}
	if phoneAgg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Phone not found"})
		return
	}

	c.JSON(http.StatusOK, phoneAgg)
}

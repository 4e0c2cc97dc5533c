package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
	"github.com/unkind-fall/marketing-sms-backup/pkg/middleware"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	config *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

// Login handles admin authentication and returns a JWT token (POST /api/auth/login)
// Credentials are checked against the configured admin username and
// bcrypt password hash.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to parse login request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	if h.config.Auth.AdminUsername == "" || h.config.Auth.AdminPasswordHash == "" {
		logger.Error("Admin credentials not configured")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if req.Username != h.config.Auth.AdminUsername {
		logger.Warn("Login attempt with unknown username")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.config.Auth.AdminPasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Login attempt with wrong password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(req.Username, h.config)
	if err != nil {
		logger.Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	logger.Info("Admin login successful")
	c.JSON(http.StatusOK, gin.H{"token": token})
}

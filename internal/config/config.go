package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port       int    `json:"port"`
		Host       string `json:"host"`
		ForceHTTPS bool   `json:"force_https"` // Redirect plain-HTTP requests (honors X-Forwarded-Proto)
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	Auth struct {
		APIKey            string        `json:"api_key"`             // X-API-Key value; empty means dev mode (no auth)
		JWTSecret         string        `json:"jwt_secret"`          // Secret for admin bearer tokens
		TokenExpiry       time.Duration `json:"token_expiry"`        //
		WebhookTOTPSecret string        `json:"webhook_totp_secret"` // When set, webhook payloads must carry a valid code
		AdminUsername     string        `json:"admin_username"`      // Login for the admin token endpoint
		AdminPasswordHash string        `json:"admin_password_hash"` // bcrypt hash of the admin password
	} `json:"auth"`
	Drive struct {
		CredentialsPath string `json:"credentials_path"` // Service account key file
		FolderID        string `json:"folder_id"`        // Drive folder holding backup archives
		EncryptionKey   string `json:"encryption_key"`   // When set, the key file is AES-256-GCM encrypted at rest
	} `json:"drive"`
	Ingest struct {
		InsertChunkSize int   `json:"insert_chunk_size"` // Records per insert transaction
		StatsChunkSize  int   `json:"stats_chunk_size"`  // Phones per stats-recompute transaction
		MaxUploadBytes  int64 `json:"max_upload_bytes"`  // Upload request body cap
	} `json:"ingest"`
	Logging struct {
		Level string `json:"level"`
		Path  string `json:"path"`
	} `json:"logging"`
}

// LoadConfig loads configuration from a JSON file, then applies any
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	config.applyEnv()
	return config, nil
}

// FromEnv returns the default configuration with environment overrides
// applied, for deployments that run without a config file.
func FromEnv() *Config {
	config := DefaultConfig()
	config.applyEnv()
	return config
}

// LoadEnv reads a .env file when present. Missing files are fine; real
// deployments set variables in the environment directly.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}
}

// applyEnv lets deployment environments override file-based settings
// without editing the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.Auth.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("WEBHOOK_TOTP_SECRET"); v != "" {
		c.Auth.WebhookTOTPSecret = v
	}
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		c.Auth.AdminUsername = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		c.Auth.AdminPasswordHash = v
	}
	if v := os.Getenv("GDRIVE_CREDENTIALS_PATH"); v != "" {
		c.Drive.CredentialsPath = v
	}
	if v := os.Getenv("GDRIVE_FOLDER_ID"); v != "" {
		c.Drive.FolderID = v
	}
	if v := os.Getenv("GDRIVE_ENCRYPTION_KEY"); v != "" {
		c.Drive.EncryptionKey = v
	}
	if v := os.Getenv("FORCE_HTTPS"); v != "" {
		c.Server.ForceHTTPS = v == "true" || v == "1"
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Database.DSN = "file:backup.db?cache=shared&mode=rwc"
	config.Auth.JWTSecret = "change-me-in-production"
	config.Auth.TokenExpiry = 24 * time.Hour
	config.Ingest.InsertChunkSize = 100
	config.Ingest.StatsChunkSize = 50
	config.Ingest.MaxUploadBytes = 50 << 20
	config.Logging.Level = "info"
	config.Logging.Path = "server.log"
	return config
}

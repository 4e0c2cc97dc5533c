package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

func main() {
	// Load .env and configuration
	config.LoadEnv()

	cfg := config.FromEnv()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		panic(err)
	}
	defer logger.Info("Server shutting down")

	// Setup and start server
	srv, err := SetupServer(cfg)
	if err != nil {
		logger.Fatal("Failed to setup server", zap.Error(err))
	}

	if err := StartServer(srv); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

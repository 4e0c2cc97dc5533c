package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/internal/gdrive"
	"github.com/unkind-fall/marketing-sms-backup/internal/handlers"
	"github.com/unkind-fall/marketing-sms-backup/internal/services"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
	"github.com/unkind-fall/marketing-sms-backup/router"
)

// SetupServer initializes and returns a configured HTTP server
func SetupServer(cfg *config.Config) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	if cfg.Server.Port <= 0 {
		return nil, errors.New("invalid server port")
	}

	// Initialize database
	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	messageRepo := db.NewMessageRepository(database.GetDB())
	callRepo := db.NewCallRepository(database.GetDB())
	phoneRepo := db.NewPhoneRepository(database.GetDB())
	subscriptionRepo := db.NewSubscriptionRepository(database.GetDB())

	// Initialize services
	ingestService := services.NewIngestService(messageRepo, callRepo, phoneRepo, subscriptionRepo,
		cfg.Ingest.InsertChunkSize, cfg.Ingest.StatsChunkSize)

	syncService, err := setupSyncService(cfg, ingestService)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	h := &router.Handlers{
		Auth:          handlers.NewAuthHandler(cfg),
		Upload:        handlers.NewUploadHandler(ingestService),
		Webhook:       handlers.NewWebhookHandler(ingestService, cfg),
		Messages:      handlers.NewMessageHandler(messageRepo),
		Calls:         handlers.NewCallHandler(callRepo, messageRepo),
		Phones:        handlers.NewPhoneHandler(phoneRepo),
		Subscriptions: handlers.NewSubscriptionHandler(subscriptionRepo, ingestService),
		Sync:          handlers.NewSyncHandler(syncService),
	}

	// Create server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router.NewRouter(cfg, h),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

// setupSyncService wires the Drive archive source when credentials are
// configured. Without them the sync trigger reports itself unavailable
// instead of failing startup.
func setupSyncService(cfg *config.Config, ingestService *services.IngestService) (handlers.SyncServiceInterface, error) {
	if cfg.Drive.CredentialsPath == "" || cfg.Drive.FolderID == "" {
		logger.Info("Remote sync disabled: no Drive credentials configured")
		return nil, nil
	}

	creds, err := gdrive.LoadCredentials(cfg.Drive.CredentialsPath, cfg.Drive.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load Drive credentials: %w", err)
	}

	client := gdrive.NewClient(creds, cfg.Drive.FolderID)
	return services.NewSyncService(client, ingestService), nil
}

// StartServer starts the HTTP server and handles graceful shutdown
func StartServer(srv *http.Server) error {
	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// StartServerWithContext starts the HTTP server with a context for shutdown control
func StartServerWithContext(ctx context.Context, srv *http.Server) error {
	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	logger.Info("Shutting down server...")

	// Create a timeout context for shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// Command drivesync runs one sync pass against the configured Drive
// folder: fetch the newest backup archive, ingest it, exit. Intended to
// be run from cron or a systemd timer.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/internal/gdrive"
	"github.com/unkind-fall/marketing-sms-backup/internal/services"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

func main() {
	config.LoadEnv()

	cfg := config.FromEnv()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	result, err := run(cfg)
	if err != nil {
		logger.Error("Sync run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	out, _ := json.Marshal(result)
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}

func run(cfg *config.Config) (*services.SyncResult, error) {
	if cfg.Drive.CredentialsPath == "" || cfg.Drive.FolderID == "" {
		return nil, fmt.Errorf("drive credentials path and folder ID are required")
	}

	creds, err := gdrive.LoadCredentials(cfg.Drive.CredentialsPath, cfg.Drive.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load Drive credentials: %w", err)
	}

	database, err := db.NewDatabase(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = database.Close()
	}()

	ingestService := services.NewIngestService(
		db.NewMessageRepository(database.GetDB()),
		db.NewCallRepository(database.GetDB()),
		db.NewPhoneRepository(database.GetDB()),
		db.NewSubscriptionRepository(database.GetDB()),
		cfg.Ingest.InsertChunkSize,
		cfg.Ingest.StatsChunkSize,
	)

	client := gdrive.NewClient(creds, cfg.Drive.FolderID)
	return services.NewSyncService(client, ingestService).Run(), nil
}

package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/ingest"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// ArchiveSource is the remote file source consumed by scheduled sync.
// An empty file name with a nil error means no archive is available.
type ArchiveSource interface {
	LatestArchive() (fileName, content string, err error)
}

// SyncResult is the structured outcome of one sync run. Failures are
// reported here rather than panicking so a scheduled trigger can log and
// exit cleanly.
type SyncResult struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName,omitempty"`
	Archive  string `json:"archive,omitempty"`
	Total    int    `json:"total"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// SyncService pulls the most recent backup archive from the remote source
// and runs it through the same ingestion pipeline the upload endpoint uses.
type SyncService struct {
	source ArchiveSource
	ingest *IngestService
}

// NewSyncService creates a new SyncService.
func NewSyncService(source ArchiveSource, ingestService *IngestService) *SyncService {
	return &SyncService{source: source, ingest: ingestService}
}

// Run fetches and ingests the latest archive once.
func (s *SyncService) Run() *SyncResult {
	fileName, content, err := s.source.LatestArchive()
	if err != nil {
		logger.Error("Archive fetch failed", zap.Error(err))
		return &SyncResult{Success: false, Error: fmt.Sprintf("archive fetch failed: %v", err)}
	}

	if fileName == "" {
		logger.Info("No archives available for sync")
		return &SyncResult{Success: true}
	}

	kind := ingest.DetectArchive(content)
	result := &SyncResult{FileName: fileName, Archive: kind.String()}

	var ingestResult *IngestResult
	switch kind {
	case ingest.ArchiveMessages:
		messages, parseErr := ingest.ParseMessages(content)
		if parseErr != nil {
			err = parseErr
			break
		}
		ingestResult, err = s.ingest.IngestMessages(messages)
	case ingest.ArchiveCalls:
		calls, parseErr := ingest.ParseCalls(content)
		if parseErr != nil {
			err = parseErr
			break
		}
		ingestResult, err = s.ingest.IngestCalls(calls)
	default:
		err = fmt.Errorf("unrecognized archive format in %q", fileName)
	}

	if err != nil {
		logger.Error("Sync ingestion failed",
			zap.String("file", fileName),
			zap.Error(err),
		)
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Total = ingestResult.Total
	result.Inserted = ingestResult.Inserted
	result.Skipped = ingestResult.Skipped

	logger.Info("Sync complete",
		zap.String("file", fileName),
		zap.String("archive", kind.String()),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)

	return result
}

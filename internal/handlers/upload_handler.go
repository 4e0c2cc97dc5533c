package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unkind-fall/marketing-sms-backup/internal/ingest"
	"github.com/unkind-fall/marketing-sms-backup/internal/services"
	"github.com/unkind-fall/marketing-sms-backup/pkg/logger"
)

// UploadHandler handles backup archive uploads
type UploadHandler struct {
	ingestService IngestServiceInterface
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(ingestService IngestServiceInterface) *UploadHandler {
	return &UploadHandler{
		ingestService: ingestService,
	}
}

// Upload handles backup archive ingestion (POST /api/upload)
// Accepts either a multipart form with a "file" field or a raw XML body.
// The archive kind (messages or calls) is sniffed from the content.
func (h *UploadHandler) Upload(c *gin.Context) {
	content, fileName, err := readArchive(c)
	if err != nil {
		logger.Warn("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	if strings.TrimSpace(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty archive"})
		return
	}

	kind := ingest.DetectArchive(content)

	var result *services.IngestResult
	switch kind {
	case ingest.ArchiveMessages:
		messages, parseErr := ingest.ParseMessages(content)
		if parseErr != nil {
			logger.Warn("Malformed message archive",
				zap.String("file", fileName),
				zap.Error(parseErr),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed message archive"})
			return
		}
		result, err = h.ingestService.IngestMessages(messages)
	case ingest.ArchiveCalls:
		calls, parseErr := ingest.ParseCalls(content)
		if parseErr != nil {
			logger.Warn("Malformed call archive",
				zap.String("file", fileName),
				zap.Error(parseErr),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed call archive"})
			return
		}
		result, err = h.ingestService.IngestCalls(calls)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unrecognized archive format"})
		return
	}

	if err != nil {
		logger.Error("Archive ingestion failed",
			zap.String("file", fileName),
			zap.String("archive", kind.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest archive"})
		return
	}

	logger.Info("Archive ingested",
		zap.String("file", fileName),
		zap.String("archive", kind.String()),
		zap.Int("total", result.Total),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"archive":      kind.String(),
		"total":        result.Total,
		"inserted":     result.Inserted,
		"skipped":      result.Skipped,
		"uniquePhones": result.UniquePhones,
	})
}

// readArchive extracts the archive content from either a multipart "file"
// field or the raw request body.
func readArchive(c *gin.Context) (content, fileName string, err error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fileHeader, formErr := c.FormFile("file")
		if formErr != nil {
			return "", "", formErr
		}

		file, openErr := fileHeader.Open()
		if openErr != nil {
			return "", "", openErr
		}
		defer file.Close()

		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return "", "", readErr
		}
		return string(data), fileHeader.Filename, nil
	}

	data, readErr := c.GetRawData()
	if readErr != nil {
		return "", "", readErr
	}
	return string(data), "", nil
}

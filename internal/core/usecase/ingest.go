package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

var supportedExtensions = map[string]string{
	".pdf":  "pdf",
	".docx": "docx",
	".txt":  "text",
	".md":   "markdown",
	".xlsx": "spreadsheet",
}

// IngestService accepts uploads, persists the raw file and the document
// record, and enqueues the document for asynchronous indexing.
type IngestService struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewIngestService(repo ports.DocumentRepository, storage ports.ObjectStorage, queue ports.MessageQueue, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{repo: repo, storage: storage, queue: queue, logger: logger}
}

func (s *IngestService) Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	filename = sanitizeFilename(filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("empty filename"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	docType, ok := supportedExtensions[ext]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("unsupported file extension %q", ext))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		MimeType:    mimeType,
		DocType:     docType,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.StoragePath = doc.ID + ext

	if err := s.storage.Save(ctx, doc.StoragePath, body); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "save upload", err)
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if removeErr := s.storage.Remove(ctx, doc.StoragePath); removeErr != nil {
			s.logger.Warn("orphaned upload cleanup failed", "document_id", doc.ID, "error", removeErr)
		}
		return nil, domain.WrapError(domain.ErrTemporary, "create document record", err)
	}

	if err := s.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		if statusErr := s.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, "enqueue failed"); statusErr != nil {
			s.logger.Error("failed to mark document failed", "document_id", doc.ID, "error", statusErr)
		}
		return nil, domain.WrapError(domain.ErrTemporary, "enqueue document", err)
	}

	s.logger.Info("document accepted", "document_id", doc.ID, "filename", doc.Filename, "doc_type", doc.DocType)
	return doc, nil
}

// sanitizeFilename strips any path components and control characters so a
// crafted filename cannot escape the storage root.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}

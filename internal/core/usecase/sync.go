package usecase

import (
	"context"
	"log/slog"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

// SyncService applies document update broadcasts to the local in-memory
// index. The chunk table is the source of truth: whatever it holds for the
// document replaces the local registration, and an empty result removes it.
type SyncService struct {
	chunkRepo ports.ChunkRepository
	index     passageIndex
	logger    *slog.Logger
}

func NewSyncService(chunkRepo ports.ChunkRepository, index passageIndex, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{chunkRepo: chunkRepo, index: index, logger: logger}
}

func (s *SyncService) Reconcile(ctx context.Context, documentID string) error {
	chunks, err := s.chunkRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "load document chunks", err)
	}

	if err := s.index.RemoveDocument(documentID); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return domain.WrapError(domain.ErrTemporary, "drop local registration", err)
	}
	if len(chunks) == 0 {
		s.logger.Info("document dropped from local index", "document_id", documentID)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	if _, err := s.index.AddDocument(documentID, texts); err != nil {
		return domain.WrapError(domain.ErrTemporary, "refresh local registration", err)
	}

	s.logger.Info("document refreshed in local index", "document_id", documentID, "chunks", len(chunks))
	return nil
}

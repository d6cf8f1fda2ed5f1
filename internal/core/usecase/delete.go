package usecase

import (
	"context"
	"log/slog"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

// DeleteService removes a document everywhere it lives: the lexical index,
// the vector store, object storage, and finally the document record. The
// record is deleted last so a crash mid-cascade leaves a visible document
// whose deletion can be retried.
type DeleteService struct {
	repo      ports.DocumentRepository
	chunkRepo ports.ChunkRepository
	storage   ports.ObjectStorage
	vectors   ports.VectorStore
	index     passageIndex
	queue     ports.MessageQueue
	logger    *slog.Logger
}

func NewDeleteService(repo ports.DocumentRepository, chunkRepo ports.ChunkRepository, storage ports.ObjectStorage, vectors ports.VectorStore, index passageIndex, queue ports.MessageQueue, logger *slog.Logger) *DeleteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteService{repo: repo, chunkRepo: chunkRepo, storage: storage, vectors: vectors, index: index, queue: queue, logger: logger}
}

func (s *DeleteService) Remove(ctx context.Context, documentID string) error {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.WrapError(domain.ErrDocumentNotFound, "load document", err)
	}

	if err := s.index.RemoveDocument(doc.ID); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return domain.WrapError(domain.ErrTemporary, "remove from lexical index", err)
	}
	if err := s.vectors.DeleteDocument(ctx, doc.ID); err != nil {
		return domain.WrapError(domain.ErrTemporary, "remove vectors", err)
	}
	if err := s.chunkRepo.DeleteByDocument(ctx, doc.ID); err != nil {
		return domain.WrapError(domain.ErrTemporary, "remove persisted chunks", err)
	}
	if err := s.storage.Remove(ctx, doc.StoragePath); err != nil {
		// The source file is not load-bearing for retrieval; log and continue.
		s.logger.Warn("source file removal failed", "document_id", doc.ID, "path", doc.StoragePath, "error", err)
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete document record", err)
	}

	if s.queue != nil {
		if err := s.queue.PublishDocumentUpdated(ctx, doc.ID); err != nil {
			s.logger.Warn("document update broadcast failed", "document_id", doc.ID, "error", err)
		}
	}

	s.logger.Info("document removed", "document_id", doc.ID)
	return nil
}

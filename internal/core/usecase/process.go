package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

// passageIndex is the slice of the retrieval engine the processing pipeline
// needs: registering chunk texts for lexical search and rolling a document
// back out when indexing fails midway.
type passageIndex interface {
	AddDocument(documentID string, chunkTexts []string) ([]domain.Chunk, error)
	RemoveDocument(documentID string) error
}

// ProcessService runs the indexing pipeline for one uploaded document:
// extract text, split into chunks, register with the lexical engine, embed,
// and push vectors into the vector store.
type ProcessService struct {
	repo      ports.DocumentRepository
	chunkRepo ports.ChunkRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	index     passageIndex
	embedder  ports.Embedder
	vectors   ports.VectorStore
	queue     ports.MessageQueue
	logger    *slog.Logger
}

func NewProcessService(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	index passageIndex,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *ProcessService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessService{
		repo:      repo,
		chunkRepo: chunkRepo,
		extractor: extractor,
		chunker:   chunker,
		index:     index,
		embedder:  embedder,
		vectors:   vectors,
		queue:     queue,
		logger:    logger,
	}
}

func (s *ProcessService) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.WrapError(domain.ErrDocumentNotFound, "load document", err)
	}
	if err := s.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return domain.WrapError(domain.ErrTemporary, "mark processing", err)
	}

	if err := s.process(ctx, doc); err != nil {
		s.markFailed(ctx, doc.ID, err)
		return err
	}

	if err := s.repo.UpdateStatus(ctx, doc.ID, domain.StatusReady, ""); err != nil {
		return domain.WrapError(domain.ErrTemporary, "mark ready", err)
	}
	s.broadcastUpdate(ctx, doc.ID)
	return nil
}

// broadcastUpdate tells other processes to refresh the document from the
// chunk table. A missed broadcast only delays convergence until restart, so
// failures are logged and swallowed.
func (s *ProcessService) broadcastUpdate(ctx context.Context, documentID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.PublishDocumentUpdated(ctx, documentID); err != nil {
		s.logger.Warn("document update broadcast failed", "document_id", documentID, "error", err)
	}
}

func (s *ProcessService) process(ctx context.Context, doc *domain.Document) error {
	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", err)
	}

	chunkTexts := s.chunker.Split(text)
	if len(chunkTexts) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "split text", fmt.Errorf("document produced no chunks"))
	}

	chunks, err := s.index.AddDocument(doc.ID, chunkTexts)
	if domain.IsKind(err, domain.ErrDuplicateDocument) {
		// Reprocessing: chunks are immutable, so replace the whole document.
		if removeErr := s.index.RemoveDocument(doc.ID); removeErr != nil {
			return domain.WrapError(domain.ErrTemporary, "replace indexed document", removeErr)
		}
		if delErr := s.vectors.DeleteDocument(ctx, doc.ID); delErr != nil {
			return domain.WrapError(domain.ErrTemporary, "purge stale vectors", delErr)
		}
		if delErr := s.chunkRepo.DeleteByDocument(ctx, doc.ID); delErr != nil {
			return domain.WrapError(domain.ErrTemporary, "purge stale chunks", delErr)
		}
		chunks, err = s.index.AddDocument(doc.ID, chunkTexts)
	}
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "register chunks", err)
	}

	embeddings, err := s.embedder.Embed(ctx, chunkTexts)
	if err != nil {
		s.rollbackIndex(doc.ID)
		return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed chunks", err)
	}
	if len(embeddings) != len(chunks) {
		s.rollbackIndex(doc.ID)
		return domain.WrapError(domain.ErrTemporary, "embed chunks", fmt.Errorf("got %d vectors for %d chunks", len(embeddings), len(chunks)))
	}

	if err := s.vectors.IndexChunks(ctx, doc, chunks, embeddings); err != nil {
		s.rollbackIndex(doc.ID)
		return domain.WrapError(domain.ErrTemporary, "index vectors", err)
	}

	// Persisted chunks let a restarted process rebuild its lexical index.
	if err := s.chunkRepo.SaveChunks(ctx, chunks); err != nil {
		s.rollbackIndex(doc.ID)
		return domain.WrapError(domain.ErrTemporary, "persist chunks", err)
	}

	if err := s.repo.SetChunkCount(ctx, doc.ID, len(chunks)); err != nil {
		return domain.WrapError(domain.ErrTemporary, "record chunk count", err)
	}

	s.logger.Info("document indexed", "document_id", doc.ID, "chunks", len(chunks))
	return nil
}

// rollbackIndex keeps the lexical index consistent with the vector store:
// a document is searchable either through both channels or neither.
func (s *ProcessService) rollbackIndex(documentID string) {
	if err := s.index.RemoveDocument(documentID); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		s.logger.Error("lexical rollback failed", "document_id", documentID, "error", err)
	}
}

func (s *ProcessService) markFailed(ctx context.Context, documentID string, cause error) {
	if err := s.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, cause.Error()); err != nil {
		s.logger.Error("failed to mark document failed", "document_id", documentID, "error", err)
	}
}

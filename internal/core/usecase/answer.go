package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

const noPassagesAnswer = "I could not find any relevant passages in the indexed documents for this question."

// QAService answers questions over the indexed corpus: retrieve fused
// passages, resolve their texts and filenames into sources, and hand the
// bundle to the generator.
type QAService struct {
	retriever ports.PassageRetriever
	repo      ports.DocumentRepository
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewQAService(retriever ports.PassageRetriever, repo ports.DocumentRepository, generator ports.AnswerGenerator, logger *slog.Logger) *QAService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QAService{retriever: retriever, repo: repo, generator: generator, logger: logger}
}

func (s *QAService) Answer(ctx context.Context, query string, mode domain.RetrievalMode, scope []string) (*domain.Answer, error) {
	started := time.Now()

	result, err := s.retriever.Retrieve(ctx, query, mode, scope)
	if err != nil {
		return nil, err
	}

	sources := s.resolveSources(ctx, result.Entries)
	answer := &domain.Answer{
		Mode:     mode,
		Sources:  sources,
		Degraded: result.Degraded,
	}

	if len(sources) == 0 {
		answer.Text = noPassagesAnswer
		answer.ProcessingTimeMS = time.Since(started).Milliseconds()
		return answer, nil
	}

	text, err := s.generator.GenerateAnswer(ctx, query, mode, sources)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "generate answer", err)
	}
	answer.Text = text
	answer.ProcessingTimeMS = time.Since(started).Milliseconds()

	s.logger.Info("question answered",
		"mode", string(mode),
		"sources", len(sources),
		"degraded", result.Degraded,
		"duration_ms", answer.ProcessingTimeMS,
	)
	return answer, nil
}

func (s *QAService) resolveSources(ctx context.Context, entries []domain.RetrievalEntry) []domain.Source {
	filenames := make(map[string]string, len(entries))
	sources := make([]domain.Source, 0, len(entries))
	for _, entry := range entries {
		text, err := s.retriever.ChunkText(entry.ChunkID)
		if err != nil {
			// Removal can race retrieval; drop the stale entry.
			s.logger.Warn("chunk text unavailable", "chunk_id", entry.ChunkID, "error", err)
			continue
		}
		filename, ok := filenames[entry.DocumentID]
		if !ok {
			if doc, err := s.repo.GetByID(ctx, entry.DocumentID); err == nil {
				filename = doc.Filename
			}
			filenames[entry.DocumentID] = filename
		}
		sources = append(sources, domain.Source{
			ChunkID:    entry.ChunkID,
			DocumentID: entry.DocumentID,
			Filename:   filename,
			Text:       text,
			FusedScore: entry.FusedScore,
		})
	}
	return sources
}

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

type Config struct {
	Lexical      LexicalParams
	Profiles     map[domain.RetrievalMode]domain.ModeProfile
	EmbedTimeout time.Duration
}

// Engine is the hybrid retrieval coordinator. It owns the chunk store and
// the lexical index; the semantic side is an adapter over the external
// embedder and vector store. The engine is constructed once at service
// start, mutated only through AddDocument/RemoveDocument, and is safe for
// concurrent use.
type Engine struct {
	chunks   *ChunkStore
	lexical  *LexicalIndex
	semantic *SemanticIndex
	profiles map[domain.RetrievalMode]domain.ModeProfile
	logger   *slog.Logger
}

func NewEngine(embedder ports.Embedder, vectors ports.VectorStore, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	profiles := cfg.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}

	chunks := NewChunkStore()
	return &Engine{
		chunks:   chunks,
		lexical:  NewLexicalIndex(chunks, cfg.Lexical),
		semantic: NewSemanticIndex(embedder, vectors, cfg.EmbedTimeout),
		profiles: profiles,
		logger:   logger,
	}
}

// AddDocument registers a document's chunks with the chunk store. The
// lexical index picks the change up lazily on the next query; embedding
// and vector indexing are the ingestion pipeline's responsibility.
func (e *Engine) AddDocument(documentID string, chunkTexts []string) ([]domain.Chunk, error) {
	return e.chunks.AddDocument(documentID, chunkTexts)
}

func (e *Engine) RemoveDocument(documentID string) error {
	return e.chunks.RemoveDocument(documentID)
}

func (e *Engine) ChunkText(chunkID string) (string, error) {
	return e.chunks.ChunkText(chunkID)
}

type channelResult struct {
	hits []domain.ScoredChunk
	err  error
}

// Retrieve runs the lexical and semantic lookups concurrently, fuses the
// candidates under the mode's weight profile, and returns the ranked
// entries. Semantic unavailability degrades to lexical-only ranking and is
// flagged in the result; lexical failure gets one rebuild retry and then
// fails the call, since lexical search is the baseline guarantee.
func (e *Engine) Retrieve(ctx context.Context, query string, mode domain.RetrievalMode, scope []string) (*domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidQuery, "retrieve", fmt.Errorf("query is empty"))
	}
	if scope != nil && len(scope) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyScope, "retrieve", fmt.Errorf("document scope is empty"))
	}
	profile, ok := e.profiles[mode]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("no profile for mode %q", mode))
	}

	var scopeSet map[string]struct{}
	if scope != nil {
		scopeSet = make(map[string]struct{}, len(scope))
		for _, documentID := range scope {
			scopeSet[documentID] = struct{}{}
		}
	}

	lexCh := make(chan channelResult, 1)
	semCh := make(chan channelResult, 1)

	go func() {
		hits, err := e.queryLexicalWithRetry(query, profile.TopKLexical, scopeSet)
		lexCh <- channelResult{hits: hits, err: err}
	}()
	go func() {
		hits, err := e.semantic.Query(ctx, query, profile.TopKSemantic, scope)
		semCh <- channelResult{hits: hits, err: err}
	}()

	lex := <-lexCh
	sem := <-semCh

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lex.err != nil {
		return nil, lex.err
	}

	degraded := false
	if sem.err != nil {
		if !domain.IsKind(sem.err, domain.ErrEmbeddingUnavailable) {
			return nil, sem.err
		}
		degraded = true
		sem.hits = nil
		e.logger.Warn("semantic_lookup_degraded", "mode", string(mode), "error", sem.err)
	}

	return &domain.RetrievalResult{
		Entries:  fuseCandidates(lex.hits, sem.hits, profile),
		Degraded: degraded,
	}, nil
}

func (e *Engine) queryLexicalWithRetry(query string, topK int, scope map[string]struct{}) ([]domain.ScoredChunk, error) {
	hits, err := e.lexical.Query(query, topK, scope)
	if err == nil {
		return hits, nil
	}

	e.logger.Warn("lexical_query_failed_rebuilding", "error", err)
	if rebuildErr := e.lexical.Rebuild(); rebuildErr != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "lexical rebuild", rebuildErr)
	}
	hits, err = e.lexical.Query(query, topK, scope)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "lexical query after rebuild", err)
	}
	return hits, nil
}

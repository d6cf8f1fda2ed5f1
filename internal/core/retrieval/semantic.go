package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

const defaultEmbedTimeout = 5 * time.Second

// SemanticIndex adapts the external embedder + vector store pair into the
// engine's similarity lookup. It owns the score contract: whatever the
// backing store returns, candidates leave this adapter scored in [0,1].
type SemanticIndex struct {
	embedder ports.Embedder
	vectors  ports.VectorStore
	timeout  time.Duration
}

func NewSemanticIndex(embedder ports.Embedder, vectors ports.VectorStore, timeout time.Duration) *SemanticIndex {
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	return &SemanticIndex{
		embedder: embedder,
		vectors:  vectors,
		timeout:  timeout,
	}
}

// Query embeds the query text and asks the vector store for the nearest
// chunks. Embedding and search failures (including the embed timeout) are
// reported as domain.ErrEmbeddingUnavailable so the coordinator can fall
// back to lexical-only ranking.
func (ix *SemanticIndex) Query(ctx context.Context, text string, topK int, scope []string) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()

	vector, err := ix.embedder.EmbedQuery(embedCtx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed query", err)
	}

	hits, err := ix.vectors.SimilaritySearch(ctx, vector, topK, scope)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "similarity search", err)
	}

	normalized, err := normalizeSimilarities(hits)
	if err != nil {
		return nil, err
	}

	sort.Slice(normalized, func(i, j int) bool {
		if normalized[i].Score != normalized[j].Score {
			return normalized[i].Score > normalized[j].Score
		}
		return normalized[i].ChunkID < normalized[j].ChunkID
	})
	if len(normalized) > topK {
		normalized = normalized[:topK]
	}
	return normalized, nil
}

// normalizeSimilarities maps cosine similarities into [0,1]. Scores already
// in [0,1] pass through unchanged; a set containing negative values is
// treated as raw cosine in [-1,1] and remapped via (s+1)/2. Values outside
// [-1,1] violate the adapter contract and fail with ErrScoreRange, because
// fusion weighting is meaningless over an unknown score range.
func normalizeSimilarities(hits []domain.ScoredChunk) ([]domain.ScoredChunk, error) {
	const eps = 1e-9

	hasNegative := false
	for _, hit := range hits {
		if hit.Score < -1-eps || hit.Score > 1+eps {
			return nil, domain.WrapError(domain.ErrScoreRange, "normalize similarity",
				fmt.Errorf("chunk %s scored %v, outside [-1,1]", hit.ChunkID, hit.Score))
		}
		if hit.Score < 0 {
			hasNegative = true
		}
	}

	out := make([]domain.ScoredChunk, len(hits))
	copy(out, hits)
	for i := range out {
		if hasNegative {
			out[i].Score = (out[i].Score + 1) / 2
		}
		if out[i].Score < 0 {
			out[i].Score = 0
		}
		if out[i].Score > 1 {
			out[i].Score = 1
		}
	}
	return out, nil
}

package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duomind/duomind/internal/core/domain"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	block  bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeVectorStore struct {
	hits []domain.ScoredChunk
	err  error

	lastScope []string
	lastLimit int
}

func (f *fakeVectorStore) IndexChunks(context.Context, *domain.Document, []domain.Chunk, [][]float32) error {
	return nil
}

func (f *fakeVectorStore) SimilaritySearch(_ context.Context, _ []float32, limit int, scope []string) ([]domain.ScoredChunk, error) {
	f.lastScope = scope
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if scope == nil {
		return f.hits, nil
	}
	allowed := make(map[string]struct{}, len(scope))
	for _, documentID := range scope {
		allowed[documentID] = struct{}{}
	}
	out := make([]domain.ScoredChunk, 0, len(f.hits))
	for _, hit := range f.hits {
		if _, ok := allowed[hit.DocumentID]; ok {
			out = append(out, hit)
		}
	}
	return out, nil
}

func (f *fakeVectorStore) DeleteDocument(context.Context, string) error { return nil }

func TestSemanticQueryWrapsEmbedderFailure(t *testing.T) {
	index := NewSemanticIndex(&fakeEmbedder{err: errors.New("model offline")}, &fakeVectorStore{}, time.Second)

	_, err := index.Query(context.Background(), "question", 5, nil)
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestSemanticQueryTimesOutAsUnavailable(t *testing.T) {
	index := NewSemanticIndex(&fakeEmbedder{block: true}, &fakeVectorStore{}, 10*time.Millisecond)

	_, err := index.Query(context.Background(), "question", 5, nil)
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected timeout to surface as ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestSemanticQueryRejectsOutOfRangeScores(t *testing.T) {
	vectors := &fakeVectorStore{hits: []domain.ScoredChunk{
		{ChunkID: "doc-1#0", DocumentID: "doc-1", Score: 3.7},
	}}
	index := NewSemanticIndex(&fakeEmbedder{vector: []float32{0.1}}, vectors, time.Second)

	_, err := index.Query(context.Background(), "question", 5, nil)
	if !domain.IsKind(err, domain.ErrScoreRange) {
		t.Fatalf("expected ErrScoreRange, got %v", err)
	}
}

func TestSemanticQueryRemapsRawCosine(t *testing.T) {
	vectors := &fakeVectorStore{hits: []domain.ScoredChunk{
		{ChunkID: "doc-1#0", DocumentID: "doc-1", Score: 1.0},
		{ChunkID: "doc-1#1", DocumentID: "doc-1", Score: -1.0},
	}}
	index := NewSemanticIndex(&fakeEmbedder{vector: []float32{0.1}}, vectors, time.Second)

	hits, err := index.Query(context.Background(), "question", 5, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score != 1.0 || hits[1].Score != 0.0 {
		t.Fatalf("expected [-1,1] remapped to [0,1], got %v and %v", hits[0].Score, hits[1].Score)
	}
}

func TestSemanticQueryPassesScopeThrough(t *testing.T) {
	vectors := &fakeVectorStore{hits: []domain.ScoredChunk{
		{ChunkID: "doc-a#0", DocumentID: "doc-a", Score: 0.9},
		{ChunkID: "doc-b#0", DocumentID: "doc-b", Score: 0.8},
	}}
	index := NewSemanticIndex(&fakeEmbedder{vector: []float32{0.1}}, vectors, time.Second)

	hits, err := index.Query(context.Background(), "question", 5, []string{"doc-a"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(vectors.lastScope) != 1 || vectors.lastScope[0] != "doc-a" {
		t.Fatalf("expected scope forwarded to vector store, got %v", vectors.lastScope)
	}
	for _, hit := range hits {
		if hit.DocumentID != "doc-a" {
			t.Fatalf("scope violated: got %s", hit.DocumentID)
		}
	}
}

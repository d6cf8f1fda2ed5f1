package ports

import (
	"context"
	"io"

	"github.com/duomind/duomind/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, chunkCount int) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository persists chunk texts so the in-memory retrieval engine
// can be rebuilt after a restart.
type ChunkRepository interface {
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error
	ListAll(ctx context.Context) ([]domain.Chunk, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes document events. Ingested events are
// work-queued to exactly one consumer; updated events are broadcast to all.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
	PublishDocumentUpdated(ctx context.Context, documentID string) error
	SubscribeDocumentUpdated(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunk embeddings and answers similarity queries.
// SimilaritySearch scores follow the cosine convention of the backing
// store; the semantic index adapter owns normalization into [0,1].
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
	SimilaritySearch(ctx context.Context, vector []float32, limit int, scope []string) ([]domain.ScoredChunk, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// AnswerGenerator creates the final user-facing answer from retrieved passages.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, mode domain.RetrievalMode, sources []domain.Source) (string, error)
}

package ports

import (
	"context"
	"io"

	"github.com/duomind/duomind/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentRemover deletes a document and cascades the removal through the
// lexical index, the vector store, and object storage.
type DocumentRemover interface {
	Remove(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

// PassageRetriever is the retrieval engine's caller-facing contract.
// A nil scope means "no filter"; a non-nil empty scope is rejected with
// domain.ErrEmptyScope so callers cannot silently filter to nothing.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string, mode domain.RetrievalMode, scope []string) (*domain.RetrievalResult, error)
	ChunkText(chunkID string) (string, error)
}

// AnswerService turns a question into a grounded answer with sources.
type AnswerService interface {
	Answer(ctx context.Context, query string, mode domain.RetrievalMode, scope []string) (*domain.Answer, error)
}

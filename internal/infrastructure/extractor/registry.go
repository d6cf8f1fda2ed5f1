package extractor

import (
	"context"
	"fmt"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

// Registry dispatches extraction to the extractor registered for the
// document's type.
type Registry struct {
	byType map[string]ports.TextExtractor
}

func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]ports.TextExtractor)}
}

func (r *Registry) Register(docType string, ex ports.TextExtractor) {
	r.byType[docType] = ex
}

func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ex, ok := r.byType[doc.DocType]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "select extractor", fmt.Errorf("no extractor for document type %q", doc.DocType))
	}
	return ex.Extract(ctx, doc)
}

package extractor

import (
	"context"
	"testing"

	"github.com/duomind/duomind/internal/core/domain"
)

type stubExtractor struct{ text string }

func (s *stubExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return s.text, nil
}

func TestRegistryDispatchesByDocType(t *testing.T) {
	reg := NewRegistry()
	reg.Register("pdf", &stubExtractor{text: "pdf text"})
	reg.Register("text", &stubExtractor{text: "plain text"})

	got, err := reg.Extract(context.Background(), &domain.Document{DocType: "pdf"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "pdf text" {
		t.Fatalf("unexpected extraction %q", got)
	}
}

func TestRegistryRejectsUnknownDocType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Extract(context.Background(), &domain.Document{DocType: "audio"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

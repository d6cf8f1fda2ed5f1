package usecase

import (
	"context"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

// DocumentQueryService is the read model for document metadata.
type DocumentQueryService struct {
	repo ports.DocumentRepository
}

func NewDocumentQueryService(repo ports.DocumentRepository) *DocumentQueryService {
	return &DocumentQueryService{repo: repo}
}

func (s *DocumentQueryService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "load document", err)
	}
	return doc, nil
}

func (s *DocumentQueryService) List(ctx context.Context) ([]domain.Document, error) {
	return s.repo.List(ctx)
}

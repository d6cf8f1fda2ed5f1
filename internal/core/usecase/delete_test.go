package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/duomind/duomind/internal/core/domain"
)

func TestRemoveCascadesEverywhere(t *testing.T) {
	repo := newFakeRepo(&domain.Document{ID: "doc-1", StoragePath: "doc-1.txt", Status: domain.StatusReady})
	storage := newFakeStorage()
	storage.saved["doc-1.txt"] = []byte("content")
	vectors := newFakeVectors()
	index := newFakeIndex()
	if _, err := index.AddDocument("doc-1", []string{"chunk"}); err != nil {
		t.Fatalf("seed AddDocument() error = %v", err)
	}

	chunkRepo := newFakeChunkRepo()
	chunkRepo.chunks["doc-1"] = []domain.Chunk{{ID: "doc-1#0", DocumentID: "doc-1", Text: "chunk"}}

	svc := NewDeleteService(repo, chunkRepo, storage, vectors, index, &fakeQueue{}, nil)
	if err := svc.Remove(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, ok := index.docs["doc-1"]; ok {
		t.Fatalf("expected document out of lexical index")
	}
	if _, ok := chunkRepo.chunks["doc-1"]; ok {
		t.Fatalf("expected persisted chunks removed")
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "doc-1" {
		t.Fatalf("expected vectors deleted, got %v", vectors.deleted)
	}
	if _, ok := storage.saved["doc-1.txt"]; ok {
		t.Fatalf("expected source file removed")
	}
	if _, ok := repo.docs["doc-1"]; ok {
		t.Fatalf("expected document record deleted")
	}
}

func TestRemoveUnknownDocument(t *testing.T) {
	svc := NewDeleteService(newFakeRepo(), newFakeChunkRepo(), newFakeStorage(), newFakeVectors(), newFakeIndex(), &fakeQueue{}, nil)
	err := svc.Remove(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRemoveToleratesUnindexedDocument(t *testing.T) {
	// A document that failed processing never reached the lexical index.
	repo := newFakeRepo(&domain.Document{ID: "doc-1", StoragePath: "doc-1.txt", Status: domain.StatusFailed})
	svc := NewDeleteService(repo, newFakeChunkRepo(), newFakeStorage(), newFakeVectors(), newFakeIndex(), &fakeQueue{}, nil)

	if err := svc.Remove(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := repo.docs["doc-1"]; ok {
		t.Fatalf("expected record deleted despite missing index entry")
	}
}

func TestRemoveKeepsRecordWhenVectorDeleteFails(t *testing.T) {
	repo := newFakeRepo(&domain.Document{ID: "doc-1", StoragePath: "doc-1.txt", Status: domain.StatusReady})
	vectors := newFakeVectors()
	vectors.deleteErr = errors.New("store unreachable")
	svc := NewDeleteService(repo, newFakeChunkRepo(), newFakeStorage(), vectors, newFakeIndex(), &fakeQueue{}, nil)

	err := svc.Remove(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if _, ok := repo.docs["doc-1"]; !ok {
		t.Fatalf("expected record kept so deletion can be retried")
	}
}

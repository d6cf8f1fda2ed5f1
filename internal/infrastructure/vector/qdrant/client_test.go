package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/duomind/duomind/internal/core/domain"
)

func TestIndexChunksUpsertsPointsWithPayload(t *testing.T) {
	var upsert struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	var sawEnsure bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			sawEnsure = true
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			if err := json.NewDecoder(r.Body).Decode(&upsert); err != nil {
				t.Errorf("decode upsert: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	doc := &domain.Document{ID: "doc-1", Filename: "manual.pdf"}
	chunks := []domain.Chunk{
		{ID: "doc-1#0", DocumentID: "doc-1", Ordinal: 0, Text: "first"},
		{ID: "doc-1#1", DocumentID: "doc-1", Ordinal: 1, Text: "second"},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), doc, chunks, vectors); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if !sawEnsure {
		t.Fatalf("expected collection ensured before upsert")
	}
	if len(upsert.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(upsert.Points))
	}
	payload := upsert.Points[0].Payload
	if payload["chunk_id"] != "doc-1#0" || payload["doc_id"] != "doc-1" || payload["filename"] != "manual.pdf" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestIndexChunksRejectsMismatchedVectors(t *testing.T) {
	client := New("http://unused", "chunks")
	err := client.IndexChunks(context.Background(), &domain.Document{ID: "doc-1"},
		[]domain.Chunk{{ID: "doc-1#0"}}, nil)
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestSimilaritySearchMapsHitsAndScopeFilter(t *testing.T) {
	var searchReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&searchReq); err != nil {
			t.Errorf("decode search: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"score": 0.92, "payload": map[string]any{"chunk_id": "doc-1#0", "doc_id": "doc-1"}},
				{"score": 0.41, "payload": map[string]any{"chunk_id": "doc-2#3", "doc_id": "doc-2"}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	hits, err := client.SimilaritySearch(context.Background(), []float32{0.1}, 5, []string{"doc-1", "doc-2"})
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "doc-1#0" || hits[0].Score != 0.92 {
		t.Fatalf("unexpected first hit %+v", hits[0])
	}
	if _, ok := searchReq["filter"]; !ok {
		t.Fatalf("expected doc_id filter in scoped search")
	}
}

func TestSimilaritySearchOmitsFilterWithoutScope(t *testing.T) {
	var searchReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&searchReq); err != nil {
			t.Errorf("decode search: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []map[string]any{}})
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	if _, err := client.SimilaritySearch(context.Background(), []float32{0.1}, 5, nil); err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if _, ok := searchReq["filter"]; ok {
		t.Fatalf("expected no filter for nil scope")
	}
}

func TestDeleteDocumentFiltersByDocID(t *testing.T) {
	var deleteReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/chunks/points/delete" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&deleteReq); err != nil {
			t.Errorf("decode delete: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	if err := client.DeleteDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	raw, _ := json.Marshal(deleteReq)
	if !json.Valid(raw) || deleteReq["filter"] == nil {
		t.Fatalf("expected delete filter, got %v", deleteReq)
	}
}

package retrieval

import (
	"fmt"
	"sort"
	"sync"

	"github.com/duomind/duomind/internal/core/domain"
)

// ChunkID builds the stable chunk identifier "{document_id}#{ordinal}".
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s#%d", documentID, ordinal)
}

// ChunkStore is the authoritative record of chunk text and identity.
// Every mutation bumps a generation counter so dependent indexes can
// detect staleness and rebuild lazily.
type ChunkStore struct {
	mu         sync.RWMutex
	byDocument map[string][]domain.Chunk
	byID       map[string]domain.Chunk
	generation uint64
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		byDocument: make(map[string][]domain.Chunk),
		byID:       make(map[string]domain.Chunk),
	}
}

func (s *ChunkStore) AddDocument(documentID string, texts []string) ([]domain.Chunk, error) {
	if documentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add document", fmt.Errorf("empty document id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byDocument[documentID]; ok {
		return nil, domain.WrapError(domain.ErrDuplicateDocument, "add document", fmt.Errorf("document %s already indexed", documentID))
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for ordinal, text := range texts {
		chunk := domain.Chunk{
			ID:         ChunkID(documentID, ordinal),
			DocumentID: documentID,
			Ordinal:    ordinal,
			Text:       text,
			TokenCount: len(tokenize(text)),
		}
		chunks = append(chunks, chunk)
		s.byID[chunk.ID] = chunk
	}
	s.byDocument[documentID] = chunks
	s.generation++

	return chunks, nil
}

func (s *ChunkStore) RemoveDocument(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, ok := s.byDocument[documentID]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "remove document", fmt.Errorf("document %s not indexed", documentID))
	}
	for _, chunk := range chunks {
		delete(s.byID, chunk.ID)
	}
	delete(s.byDocument, documentID)
	s.generation++
	return nil
}

func (s *ChunkStore) ChunkText(chunkID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.byID[chunkID]
	if !ok {
		return "", domain.WrapError(domain.ErrChunkNotFound, "get chunk text", fmt.Errorf("chunk %s not indexed", chunkID))
	}
	return chunk.Text, nil
}

func (s *ChunkStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// snapshot returns all chunks in deterministic order together with the
// generation they belong to. Index builds work from this copy so readers
// never observe a half-built index.
func (s *ChunkStore) snapshot() ([]domain.Chunk, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, 0, len(s.byID))
	for _, chunks := range s.byDocument {
		out = append(out, chunks...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, s.generation
}

package usecase

import (
	"bytes"
	"context"
	"io"

	"github.com/duomind/duomind/internal/core/domain"
)

type fakeRepo struct {
	docs       map[string]*domain.Document
	createErr  error
	statusErr  error
	deleteErr  error
	statusLog  []domain.DocumentStatus
	lastError  string
	chunkCount int
}

func newFakeRepo(docs ...*domain.Document) *fakeRepo {
	r := &fakeRepo{docs: make(map[string]*domain.Document)}
	for _, doc := range docs {
		r.docs[doc.ID] = doc
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *fakeRepo) List(_ context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	if doc, ok := r.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	r.statusLog = append(r.statusLog, status)
	r.lastError = errMessage
	return nil
}

func (r *fakeRepo) SetChunkCount(_ context.Context, id string, chunkCount int) error {
	if doc, ok := r.docs[id]; ok {
		doc.ChunkCount = chunkCount
	}
	r.chunkCount = chunkCount
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.docs, id)
	return nil
}

type fakeChunkRepo struct {
	chunks    map[string][]domain.Chunk
	saveErr   error
	listErr   error
	deleteErr error
	deleted   []string
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: make(map[string][]domain.Chunk)}
}

func (r *fakeChunkRepo) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, chunk := range chunks {
		r.chunks[chunk.DocumentID] = append(r.chunks[chunk.DocumentID], chunk)
	}
	return nil
}

func (r *fakeChunkRepo) ListAll(_ context.Context) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, chunks := range r.chunks {
		out = append(out, chunks...)
	}
	return out, nil
}

func (r *fakeChunkRepo) ListByDocument(_ context.Context, documentID string) ([]domain.Chunk, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.chunks[documentID], nil
}

func (r *fakeChunkRepo) DeleteByDocument(_ context.Context, documentID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.chunks, documentID)
	r.deleted = append(r.deleted, documentID)
	return nil
}

type fakeStorage struct {
	saved   map[string][]byte
	saveErr error
	removed []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.saved[key] = buf
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	buf, ok := s.saved[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (s *fakeStorage) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	delete(s.saved, key)
	return nil
}

type fakeQueue struct {
	published  []string
	publishErr error
	updated    []string
	updatedErr error
}

func (q *fakeQueue) PublishDocumentIngested(_ context.Context, documentID string) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func (q *fakeQueue) PublishDocumentUpdated(_ context.Context, documentID string) error {
	if q.updatedErr != nil {
		return q.updatedErr
	}
	q.updated = append(q.updated, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentUpdated(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return e.text, e.err
}

type fakeChunker struct{ chunks []string }

func (c *fakeChunker) Split(string) []string { return c.chunks }

type fakeIndex struct {
	docs      map[string][]string
	addErr    error
	removeErr error
	removed   []string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string][]string)}
}

func (i *fakeIndex) AddDocument(documentID string, chunkTexts []string) ([]domain.Chunk, error) {
	if i.addErr != nil {
		return nil, i.addErr
	}
	if _, ok := i.docs[documentID]; ok {
		return nil, domain.ErrDuplicateDocument
	}
	i.docs[documentID] = chunkTexts
	chunks := make([]domain.Chunk, len(chunkTexts))
	for ordinal, text := range chunkTexts {
		chunks[ordinal] = domain.Chunk{
			ID:         documentID + "#" + string(rune('0'+ordinal)),
			DocumentID: documentID,
			Ordinal:    ordinal,
			Text:       text,
		}
	}
	return chunks, nil
}

func (i *fakeIndex) RemoveDocument(documentID string) error {
	if i.removeErr != nil {
		return i.removeErr
	}
	if _, ok := i.docs[documentID]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(i.docs, documentID)
	i.removed = append(i.removed, documentID)
	return nil
}

type fakeUsecaseEmbedder struct {
	dims int
	err  error
}

func (e *fakeUsecaseEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dims)
	}
	return out, nil
}

func (e *fakeUsecaseEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return make([]float32, e.dims), nil
}

type fakeVectors struct {
	indexed    map[string]int
	indexErr   error
	deleteErr  error
	deleted    []string
	searchHits []domain.ScoredChunk
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{indexed: make(map[string]int)}
}

func (v *fakeVectors) IndexChunks(_ context.Context, doc *domain.Document, chunks []domain.Chunk, _ [][]float32) error {
	if v.indexErr != nil {
		return v.indexErr
	}
	v.indexed[doc.ID] = len(chunks)
	return nil
}

func (v *fakeVectors) SimilaritySearch(context.Context, []float32, int, []string) ([]domain.ScoredChunk, error) {
	return v.searchHits, nil
}

func (v *fakeVectors) DeleteDocument(_ context.Context, documentID string) error {
	if v.deleteErr != nil {
		return v.deleteErr
	}
	v.deleted = append(v.deleted, documentID)
	delete(v.indexed, documentID)
	return nil
}

type fakeRetriever struct {
	result *domain.RetrievalResult
	err    error
	texts  map[string]string
}

func (r *fakeRetriever) Retrieve(context.Context, string, domain.RetrievalMode, []string) (*domain.RetrievalResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *fakeRetriever) ChunkText(chunkID string) (string, error) {
	text, ok := r.texts[chunkID]
	if !ok {
		return "", domain.ErrChunkNotFound
	}
	return text, nil
}

type fakeGenerator struct {
	answer      string
	err         error
	gotSources  []domain.Source
	gotQuestion string
}

func (g *fakeGenerator) GenerateAnswer(_ context.Context, question string, _ domain.RetrievalMode, sources []domain.Source) (string, error) {
	g.gotQuestion = question
	g.gotSources = sources
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

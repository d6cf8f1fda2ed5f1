package retrieval

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/duomind/duomind/internal/core/domain"
)

// LexicalParams are the BM25+ tuning knobs: k1 saturates term frequency,
// b controls length normalization, delta is the BM25+ floor that keeps long
// sparsely-matching chunks from being under-scored.
type LexicalParams struct {
	K1    float64
	B     float64
	Delta float64
}

func DefaultLexicalParams() LexicalParams {
	return LexicalParams{K1: 1.5, B: 0.75, Delta: 1.0}
}

func (p LexicalParams) normalize() LexicalParams {
	def := DefaultLexicalParams()
	if p.K1 <= 0 {
		p.K1 = def.K1
	}
	if p.B < 0 || p.B > 1 {
		p.B = def.B
	}
	if p.Delta < 0 {
		p.Delta = def.Delta
	}
	return p
}

type posting struct {
	chunkID    string
	documentID string
	tf         float64
}

// lexicalSnapshot is an immutable build of the index for one chunk store
// generation. Queries read whichever snapshot is current; rebuilds prepare
// a fresh snapshot and swap it in atomically.
type lexicalSnapshot struct {
	generation uint64
	postings   map[string][]posting
	idf        map[string]float64
	chunkLen   map[string]float64
	avgLen     float64
	size       int
}

type LexicalIndex struct {
	store  *ChunkStore
	params LexicalParams

	buildMu sync.Mutex
	snap    atomic.Pointer[lexicalSnapshot]
}

func NewLexicalIndex(store *ChunkStore, params LexicalParams) *LexicalIndex {
	ix := &LexicalIndex{
		store:  store,
		params: params.normalize(),
	}
	ix.snap.Store(&lexicalSnapshot{
		postings: map[string][]posting{},
		idf:      map[string]float64{},
		chunkLen: map[string]float64{},
	})
	return ix
}

// Query scores chunks against the query terms and returns up to topK
// candidates, descending by score with chunk-id ascending as tie-break.
// A non-nil scope restricts scoring to chunks of the listed documents;
// out-of-scope postings are skipped before any scoring work happens.
func (ix *LexicalIndex) Query(query string, topK int, scope map[string]struct{}) ([]domain.ScoredChunk, error) {
	snap, err := ix.current()
	if err != nil {
		return nil, err
	}
	if topK <= 0 || snap.size == 0 {
		return nil, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64)
	docOf := make(map[string]string)
	for _, term := range terms {
		idf, ok := snap.idf[term]
		if !ok {
			continue
		}
		for _, p := range snap.postings[term] {
			if scope != nil {
				if _, ok := scope[p.documentID]; !ok {
					continue
				}
			}
			norm := ix.params.K1 * (1 - ix.params.B + ix.params.B*snap.chunkLen[p.chunkID]/snap.avgLen)
			scores[p.chunkID] += idf * ((ix.params.K1+1)*p.tf/(norm+p.tf) + ix.params.Delta)
			docOf[p.chunkID] = p.documentID
		}
	}

	out := make([]domain.ScoredChunk, 0, len(scores))
	for chunkID, score := range scores {
		out = append(out, domain.ScoredChunk{
			ChunkID:    chunkID,
			DocumentID: docOf[chunkID],
			Score:      score,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Rebuild forces a fresh build from the current chunk store state.
func (ix *LexicalIndex) Rebuild() error {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()
	return ix.rebuildLocked()
}

// current returns an up-to-date snapshot, rebuilding first if the chunk
// store generation has advanced since the last build.
func (ix *LexicalIndex) current() (*lexicalSnapshot, error) {
	if snap := ix.snap.Load(); snap.generation == ix.store.Generation() {
		return snap, nil
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()
	// Another goroutine may have rebuilt while we waited for the lock.
	if snap := ix.snap.Load(); snap.generation == ix.store.Generation() {
		return snap, nil
	}
	if err := ix.rebuildLocked(); err != nil {
		return nil, err
	}
	return ix.snap.Load(), nil
}

func (ix *LexicalIndex) rebuildLocked() error {
	chunks, generation := ix.store.snapshot()

	snap := &lexicalSnapshot{
		generation: generation,
		postings:   make(map[string][]posting),
		idf:        make(map[string]float64),
		chunkLen:   make(map[string]float64, len(chunks)),
		size:       len(chunks),
	}

	df := make(map[string]int)
	var totalLen float64
	for _, chunk := range chunks {
		tokens := tokenize(chunk.Text)
		snap.chunkLen[chunk.ID] = float64(len(tokens))
		totalLen += float64(len(tokens))

		tf := make(map[string]float64, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for term, freq := range tf {
			snap.postings[term] = append(snap.postings[term], posting{
				chunkID:    chunk.ID,
				documentID: chunk.DocumentID,
				tf:         freq,
			})
			df[term]++
		}
	}

	if len(chunks) > 0 {
		snap.avgLen = totalLen / float64(len(chunks))
	}
	if snap.avgLen == 0 {
		// All-empty chunks would divide by zero in length normalization.
		snap.avgLen = 1
	}

	n := float64(len(chunks))
	for term, freq := range df {
		snap.idf[term] = math.Log(1 + (n-float64(freq)+0.5)/(float64(freq)+0.5))
	}

	// Posting lists must never reference a chunk absent from the store.
	for term, list := range snap.postings {
		for _, p := range list {
			if _, ok := snap.chunkLen[p.chunkID]; !ok {
				return domain.WrapError(domain.ErrRetrievalUnavailable, "rebuild lexical index",
					fmt.Errorf("posting for term %q references unknown chunk %s", term, p.chunkID))
			}
		}
	}

	ix.snap.Store(snap)
	return nil
}

package retrieval

import (
	"strings"
	"testing"
)

func buildLexicalFixture(t *testing.T, docs map[string][]string) (*ChunkStore, *LexicalIndex) {
	t.Helper()
	store := NewChunkStore()
	for documentID, chunks := range docs {
		if _, err := store.AddDocument(documentID, chunks); err != nil {
			t.Fatalf("AddDocument(%s) error = %v", documentID, err)
		}
	}
	return store, NewLexicalIndex(store, DefaultLexicalParams())
}

func TestLexicalQueryVerbatimRoundTrip(t *testing.T) {
	_, index := buildLexicalFixture(t, map[string][]string{
		"doc-1": {
			"The cat sat on the mat.",
			"Quantum entanglement defies classical intuition.",
			"An unrelated passage about gardening tools.",
		},
	})

	hits, err := index.Query("Quantum entanglement defies classical intuition.", 10, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected lexical hits for verbatim query")
	}
	if hits[0].ChunkID != "doc-1#1" {
		t.Fatalf("expected verbatim chunk first, got %s", hits[0].ChunkID)
	}
}

func TestLexicalScoreMonotonicInTermFrequency(t *testing.T) {
	// Two chunks of identical length; only one contains the query term.
	_, index := buildLexicalFixture(t, map[string][]string{
		"doc-1": {
			"turbine blade alignment procedure summary",
			"general blade alignment procedure summary",
		},
	})

	hits, err := index.Query("turbine", 10, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly the matching chunk, got %d hits", len(hits))
	}
	if hits[0].ChunkID != "doc-1#0" || hits[0].Score <= 0 {
		t.Fatalf("expected positive score for doc-1#0, got %s=%v", hits[0].ChunkID, hits[0].Score)
	}
}

func TestLexicalHigherTermFrequencyScoresHigher(t *testing.T) {
	_, index := buildLexicalFixture(t, map[string][]string{
		"doc-1": {
			"turbine turbine maintenance checklist overview",
			"turbine coolant maintenance checklist overview",
		},
	})

	hits, err := index.Query("turbine", 10, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "doc-1#0" {
		t.Fatalf("expected higher-tf chunk first, got %s", hits[0].ChunkID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("expected strict score ordering, got %v <= %v", hits[0].Score, hits[1].Score)
	}
}

func TestLexicalQueryScopePreFilters(t *testing.T) {
	_, index := buildLexicalFixture(t, map[string][]string{
		"doc-a": {"shared keyword appears here"},
		"doc-b": {"shared keyword appears here too"},
	})

	scope := map[string]struct{}{"doc-a": {}}
	hits, err := index.Query("shared keyword", 10, scope)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected in-scope hits")
	}
	for _, hit := range hits {
		if hit.DocumentID != "doc-a" {
			t.Fatalf("scope violated: got chunk from %s", hit.DocumentID)
		}
	}
}

func TestLexicalQueryAfterRemovalHasNoStalePostings(t *testing.T) {
	store, index := buildLexicalFixture(t, map[string][]string{
		"doc-a": {"ephemeral content about volcanoes"},
		"doc-b": {"stable content about rivers"},
	})

	if hits, err := index.Query("volcanoes", 10, nil); err != nil || len(hits) != 1 {
		t.Fatalf("expected one hit before removal, got %d (err=%v)", len(hits), err)
	}

	if err := store.RemoveDocument("doc-a"); err != nil {
		t.Fatalf("RemoveDocument() error = %v", err)
	}

	hits, err := index.Query("volcanoes", 10, nil)
	if err != nil {
		t.Fatalf("Query() after removal error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits after removal, got %d", len(hits))
	}
}

func TestLexicalTieBreakByChunkIDAscending(t *testing.T) {
	// Identical chunks score identically; order must be deterministic.
	_, index := buildLexicalFixture(t, map[string][]string{
		"doc-1": {
			"identical tie break text",
			"identical tie break text",
		},
	})

	hits, err := index.Query("identical tie", 10, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "doc-1#0" || hits[1].ChunkID != "doc-1#1" {
		t.Fatalf("expected chunk-id ascending tie-break, got %s then %s", hits[0].ChunkID, hits[1].ChunkID)
	}
}

func TestLexicalQueryTruncatesToTopK(t *testing.T) {
	chunks := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		chunks = append(chunks, "common term plus filler "+strings.Repeat("pad ", i))
	}
	_, index := buildLexicalFixture(t, map[string][]string{"doc-1": chunks})

	hits, err := index.Query("common term", 3, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected top_k=3 hits, got %d", len(hits))
	}
}

func TestLexicalQueryEmptyIndexReturnsNothing(t *testing.T) {
	_, index := buildLexicalFixture(t, nil)
	hits, err := index.Query("anything", 5, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits from empty index, got %d", len(hits))
	}
}

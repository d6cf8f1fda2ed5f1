package retrieval

import (
	"sort"

	"github.com/duomind/duomind/internal/core/domain"
)

// fuseCandidates merges the lexical and semantic candidate sets into one
// ranked list. Each set is min-max normalized within itself first, so the
// two scorers' very different native ranges cannot drown each other out.
// A chunk present in only one set contributes zero in the other dimension.
// Multiple chunks of the same document may survive; a document can hold
// several independently relevant passages.
func fuseCandidates(lexical, semantic []domain.ScoredChunk, profile domain.ModeProfile) []domain.RetrievalEntry {
	lexNorm := minMaxNormalize(lexical)
	semNorm := minMaxNormalize(semantic)

	type candidate struct {
		documentID string
		lexRaw     float64
		semRaw     float64
		lexNorm    float64
		semNorm    float64
	}
	acc := make(map[string]*candidate, len(lexical)+len(semantic))
	get := func(chunkID, documentID string) *candidate {
		c, ok := acc[chunkID]
		if !ok {
			c = &candidate{documentID: documentID}
			acc[chunkID] = c
		}
		return c
	}

	for i, hit := range lexical {
		c := get(hit.ChunkID, hit.DocumentID)
		c.lexRaw = hit.Score
		c.lexNorm = lexNorm[i]
	}
	for i, hit := range semantic {
		c := get(hit.ChunkID, hit.DocumentID)
		c.semRaw = hit.Score
		c.semNorm = semNorm[i]
	}

	out := make([]domain.RetrievalEntry, 0, len(acc))
	for chunkID, c := range acc {
		out = append(out, domain.RetrievalEntry{
			ChunkID:       chunkID,
			DocumentID:    c.documentID,
			FusedScore:    profile.LexicalWeight*c.lexNorm + profile.SemanticWeight*c.semNorm,
			LexicalScore:  c.lexRaw,
			SemanticScore: c.semRaw,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if profile.FinalTopN > 0 && len(out) > profile.FinalTopN {
		out = out[:profile.FinalTopN]
	}
	return out
}

// minMaxNormalize scales one candidate set's scores into [0,1]. A single
// candidate, or a set with zero score range, normalizes to all-1.0 so that
// presence in a channel still counts.
func minMaxNormalize(hits []domain.ScoredChunk) []float64 {
	if len(hits) == 0 {
		return nil
	}

	minScore, maxScore := hits[0].Score, hits[0].Score
	for _, hit := range hits[1:] {
		if hit.Score < minScore {
			minScore = hit.Score
		}
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	out := make([]float64, len(hits))
	if maxScore == minScore {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, hit := range hits {
		out[i] = (hit.Score - minScore) / (maxScore - minScore)
	}
	return out
}

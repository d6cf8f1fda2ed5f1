package domain

import "fmt"

type RetrievalMode string

const (
	ModeNormal RetrievalMode = "normal"
	ModePro    RetrievalMode = "pro"
)

func ParseRetrievalMode(raw string) (RetrievalMode, error) {
	switch RetrievalMode(raw) {
	case ModeNormal, "":
		return ModeNormal, nil
	case ModePro:
		return ModePro, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse retrieval mode", fmt.Errorf("unknown mode %q", raw))
	}
}

// ScoredChunk is a single candidate produced by one retrieval channel
// (lexical or semantic) before fusion.
type ScoredChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// RetrievalEntry is one fused result. Lexical and semantic scores are kept
// in their native ranges for diagnostics; FusedScore is the normalized,
// weighted combination used for ordering.
type RetrievalEntry struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	FusedScore    float64 `json:"fused_score"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
}

type RetrievalResult struct {
	Entries []RetrievalEntry `json:"entries"`
	// Degraded is set when the semantic channel was unavailable and the
	// ranking was produced from lexical candidates only.
	Degraded bool `json:"degraded"`
}

// ModeProfile tunes fusion for one retrieval mode. Weights are non-negative
// and need not sum to one; the fusion ranker normalizes per candidate set.
type ModeProfile struct {
	LexicalWeight  float64 `yaml:"lexical_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	TopKLexical    int     `yaml:"top_k_lexical"`
	TopKSemantic   int     `yaml:"top_k_semantic"`
	FinalTopN      int     `yaml:"final_top_n"`
}

func (p ModeProfile) Validate() error {
	if p.LexicalWeight < 0 || p.SemanticWeight < 0 {
		return WrapError(ErrInvalidInput, "validate mode profile", fmt.Errorf("negative weight: lexical=%v semantic=%v", p.LexicalWeight, p.SemanticWeight))
	}
	if p.LexicalWeight == 0 && p.SemanticWeight == 0 {
		return WrapError(ErrInvalidInput, "validate mode profile", fmt.Errorf("both weights are zero"))
	}
	if p.TopKLexical <= 0 || p.TopKSemantic <= 0 || p.FinalTopN <= 0 {
		return WrapError(ErrInvalidInput, "validate mode profile", fmt.Errorf("non-positive top-k settings"))
	}
	return nil
}

type Source struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Text       string  `json:"text"`
	FusedScore float64 `json:"fused_score"`
}

type Answer struct {
	Text             string        `json:"text"`
	Mode             RetrievalMode `json:"mode"`
	Sources          []Source      `json:"sources"`
	Degraded         bool          `json:"degraded"`
	ProcessingTimeMS int64         `json:"processing_time_ms"`
}

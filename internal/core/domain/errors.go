package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrChunkNotFound        = errors.New("chunk not found")
	ErrDuplicateDocument    = errors.New("duplicate document")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrEmptyScope           = errors.New("empty document scope")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrScoreRange           = errors.New("similarity score out of range")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

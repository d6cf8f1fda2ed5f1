package wordml

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

var (
	reParagraphEnd = regexp.MustCompile(`</w:p>`)
	reAnyTag       = regexp.MustCompile(`<[^>]+>`)
	reNewlines     = regexp.MustCompile(`\n{3,}`)
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	// GetContent returns the document XML; paragraph closers become line
	// breaks and the remaining markup is stripped.
	content := r.Editable().GetContent()
	content = reParagraphEnd.ReplaceAllString(content, "\n")
	content = reAnyTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = reNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content), nil
}

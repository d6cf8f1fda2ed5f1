package markdown

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/duomind/duomind/internal/core/domain"
	"github.com/duomind/duomind/internal/core/ports"
)

var (
	reHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*(.+?)\*`)
	reCodeFence  = regexp.MustCompile("```[\\s\\S]*?```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	reHTMLTag    = regexp.MustCompile(`<[^>]+>`)
	reNewlines   = regexp.MustCompile(`\n{3,}`)
)

// Extractor strips Markdown markup and keeps the readable text, including
// the contents of fenced code blocks.
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

	text := string(raw)
	text = reCodeFence.ReplaceAllStringFunc(text, func(block string) string {
		block = strings.TrimPrefix(block, "```")
		if idx := strings.Index(block, "\n"); idx >= 0 {
			block = block[idx+1:]
		}
		return strings.TrimSpace(strings.TrimSuffix(block, "```"))
	})
	text = reImage.ReplaceAllString(text, "$1")
	text = reLink.ReplaceAllString(text, "$1")
	text = reBold.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reHeader.ReplaceAllString(text, "")
	text = reHTMLTag.ReplaceAllString(text, "")
	text = reNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}

package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmptyTextYieldsNothing(t *testing.T) {
	s := NewSplitter(100, 20)
	if chunks := s.Split("   \n\n  "); chunks != nil {
		t.Fatalf("expected nil for blank text, got %v", chunks)
	}
}

func TestSplitKeepsShortParagraphsTogether(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("first paragraph.\n\nsecond paragraph.")
	if len(chunks) != 1 {
		t.Fatalf("expected paragraphs packed into one chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "first paragraph.") || !strings.Contains(chunks[0], "second paragraph.") {
		t.Fatalf("expected both paragraphs present, got %q", chunks[0])
	}
}

func TestSplitBreaksAtParagraphBoundary(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	s := NewSplitter(100, 0)

	chunks := s.Split(a + "\n\n" + b)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != a || chunks[1] != b {
		t.Fatalf("expected clean paragraph split, got %q / %q", chunks[0], chunks[1])
	}
}

func TestSplitLongParagraphUsesOverlappingWindows(t *testing.T) {
	text := strings.Repeat("x", 250)
	s := NewSplitter(100, 20)

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 windows for 250 runes with step 80, got %d", len(chunks))
	}
	for i, chunk := range chunks[:len(chunks)-1] {
		if len([]rune(chunk)) != 100 {
			t.Fatalf("window %d has %d runes, want 100", i, len([]rune(chunk)))
		}
	}
}

func TestSplitHandlesMultiByteRunes(t *testing.T) {
	text := strings.Repeat("日", 150)
	s := NewSplitter(100, 0)

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if got := len([]rune(chunks[0])); got != 100 {
		t.Fatalf("expected rune-based window of 100, got %d", got)
	}
}

func TestNewSplitterClampsBadSettings(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 500 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: size=%d overlap=%d", s.ChunkSize, s.Overlap)
	}

	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to quarter, got %d", s.Overlap)
	}
}

package pipeline

import (
	"strings"
	"testing"
)

func TestRechunkShortDocumentSingleChunk(t *testing.T) {
	t.Parallel()

	docs := []Document{{
		Content:  "short note about sponsorship",
		Metadata: map[string]string{MetaTitle: "Acme", MetaTopic: "sponsorship"},
	}}

	chunks := Rechunk(docs, 1200, 150)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != docs[0].Content {
		t.Errorf("content changed: %q", chunks[0].Content)
	}
	if chunks[0].Metadata[MetaChunkIdx] != "0" {
		t.Errorf("chunk_idx = %q, want %q", chunks[0].Metadata[MetaChunkIdx], "0")
	}
}

func TestRechunkSizeBound(t *testing.T) {
	t.Parallel()

	paragraphs := make([]string, 40)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("word ", 30)
	}
	docs := []Document{{
		Content:  strings.Join(paragraphs, "\n\n"),
		Metadata: map[string]string{MetaTitle: "long", MetaTopic: "misc"},
	}}

	const maxSize = 300
	chunks := Rechunk(docs, maxSize, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) > maxSize {
			t.Errorf("chunk %d has %d chars, exceeds bound %d", i, len(c.Content), maxSize)
		}
		if strings.TrimSpace(c.Content) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestRechunkHardCutFallback(t *testing.T) {
	t.Parallel()

	// No separator anywhere, forcing character windows.
	docs := []Document{{
		Content:  strings.Repeat("x", 1000),
		Metadata: map[string]string{MetaTopic: "misc"},
	}}

	chunks := Rechunk(docs, 400, 100)
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Content) > 400 {
			t.Errorf("chunk %d has %d chars, want <= 400", i, len(c.Content))
		}
	}
	// Consecutive windows share overlap characters.
	first, second := chunks[0].Content, chunks[1].Content
	if !strings.HasPrefix(second, first[len(first)-100:]) {
		t.Error("second chunk does not start with first chunk's tail")
	}
}

func TestRechunkMetadataPropagation(t *testing.T) {
	t.Parallel()

	meta := map[string]string{
		MetaTitle:  "Acme Sponsorship Call",
		MetaTopic:  "sponsorship",
		MetaGuests: "Acme Corp",
		MetaYear:   "2024",
	}
	docs := []Document{{
		Content:  strings.Repeat("sentence about acme. ", 100),
		Metadata: meta,
	}}

	chunks := Rechunk(docs, 250, 40)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	seen := make(map[string]bool)
	for _, c := range chunks {
		for k, v := range meta {
			if c.Metadata[k] != v {
				t.Errorf("metadata[%q] = %q, want %q", k, c.Metadata[k], v)
			}
		}
		idx := c.Metadata[MetaChunkIdx]
		if idx == "" {
			t.Error("missing chunk_idx")
		}
		if seen[idx] {
			t.Errorf("duplicate chunk_idx %q within document", idx)
		}
		seen[idx] = true
	}
	if !seen["0"] {
		t.Error("chunk indexes do not start at 0")
	}

	// Source metadata must not be mutated.
	if len(meta) != 4 {
		t.Errorf("source metadata mutated: %v", meta)
	}
}

func TestRechunkDropsEmptyDocuments(t *testing.T) {
	t.Parallel()

	docs := []Document{
		{Content: "   \n\n  ", Metadata: map[string]string{MetaTopic: "misc"}},
		{Content: "real content", Metadata: map[string]string{MetaTopic: "misc"}},
	}

	chunks := Rechunk(docs, 1200, 150)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "real content" {
		t.Errorf("unexpected chunk content %q", chunks[0].Content)
	}
}

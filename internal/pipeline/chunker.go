package pipeline

import (
	"strconv"
	"strings"
)

// separators is the cascade used to split oversized text, coarsest first.
// The empty string means hard character cuts.
var separators = []string{"\n\n", "\n", " ", ""}

// Rechunk splits each document's content into pieces of at most maxSize
// characters, preferring the coarsest separator that respects the bound
// and retaining up to overlap characters of trailing context between
// consecutive pieces of the same document.
//
// Every chunk inherits its source document's metadata unchanged plus a
// zero-based chunk_idx unique within that document. A document already
// within maxSize yields exactly one chunk with chunk_idx 0. Empty chunks
// are dropped.
func Rechunk(docs []Document, maxSize, overlap int) []Document {
	if maxSize <= 0 {
		maxSize = 1200
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}

	var chunks []Document
	for _, doc := range docs {
		pieces := splitText(doc.Content, maxSize, overlap, separators)
		for idx, piece := range pieces {
			meta := make(map[string]string, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[MetaChunkIdx] = strconv.Itoa(idx)
			chunks = append(chunks, Document{Content: piece, Metadata: meta})
		}
	}
	return chunks
}

// splitText recursively splits text with the separator cascade. Pieces
// produced by one separator are greedily merged back up to maxSize; a
// piece that alone exceeds maxSize is re-split with the next, finer
// separator. Blank pieces are discarded.
func splitText(text string, maxSize, overlap int, seps []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return hardCut(text, maxSize, overlap)
	}

	var out []string
	var cur strings.Builder
	flush := func() {
		if s := cur.String(); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, part := range strings.Split(text, sep) {
		if len(part) > maxSize {
			flush()
			out = append(out, splitText(part, maxSize, overlap, seps[1:])...)
			continue
		}

		need := len(part)
		if cur.Len() > 0 {
			need += len(sep)
		}
		if cur.Len()+need > maxSize {
			tail := overlapTail(cur.String(), overlap)
			flush()
			if tail != "" && len(tail)+len(sep)+len(part) <= maxSize {
				cur.WriteString(tail)
			}
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(part)
	}
	flush()
	return out
}

// overlapTail returns at most overlap trailing characters of s, starting
// at a rune boundary.
func overlapTail(s string, overlap int) string {
	if overlap <= 0 || s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= overlap {
		return s
	}
	return string(runes[len(runes)-overlap:])
}

// hardCut windows text into maxSize-rune pieces stepping by
// maxSize-overlap, the last-resort fallback for text with no usable
// separator.
func hardCut(text string, maxSize, overlap int) []string {
	step := maxSize - overlap
	if step <= 0 {
		step = maxSize
	}

	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += step {
		end := min(i+maxSize, len(runes))
		piece := string(runes[i:end])
		if strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

package pipeline

import "strings"

// Document pairs embeddable content with string metadata. The pipeline
// produces one Document per block, then the chunker splits it into
// bounded-size Documents carrying a chunk_idx.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Metadata keys produced by field extraction and chunking.
const (
	MetaTitle      = "title"
	MetaTopic      = "topic"
	MetaGuests     = "guests"
	MetaYear       = "year"
	MetaSourceFile = "source_file"
	MetaChunkIdx   = "chunk_idx"
)

// ExtractFields lifts the "Field: value" lines of a block into metadata
// and returns the block's notes as content. Topic values are normalized
// to the canonical label set. The Notes field runs from its first line to
// the end of the block; field-shaped lines inside it stay part of the
// notes. Free text before Notes is kept as notes rather than dropped.
// A block with no usable notes falls back to its full raw text so content
// is never empty for a non-empty block.
func ExtractFields(b Block) Document {
	meta := map[string]string{
		MetaTitle: b.Title,
		MetaTopic: TopicMisc,
	}

	var notes []string
	inNotes := false
	for line := range strings.Lines(b.RawText) {
		line = strings.TrimRight(line, "\n")
		if inNotes {
			notes = append(notes, line)
			continue
		}

		name, value, ok := splitField(line)
		if !ok {
			if strings.TrimSpace(line) != "" {
				notes = append(notes, line)
			}
			continue
		}
		switch name {
		case MetaTitle:
			if value != "" {
				meta[MetaTitle] = value
			}
		case MetaTopic:
			meta[MetaTopic] = NormalizeTopicList(value)
		case MetaGuests:
			if value != "" {
				meta[MetaGuests] = cleanList(value)
			}
		case MetaYear:
			if value != "" {
				meta[MetaYear] = value
			}
		case "notes":
			inNotes = true
			if value != "" {
				notes = append(notes, value)
			}
		}
	}

	content := strings.TrimSpace(strings.Join(notes, "\n"))
	if content == "" {
		content = strings.TrimSpace(b.RawText)
	}
	return Document{Content: content, Metadata: meta}
}

// splitField recognizes a "Field: value" line for one of the known field
// names, case-insensitively.
func splitField(line string) (name, value string, ok bool) {
	rawName, rawValue, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	switch key := strings.ToLower(strings.TrimSpace(rawName)); key {
	case MetaTitle, MetaTopic, MetaGuests, MetaYear, "notes":
		return key, strings.TrimSpace(rawValue), true
	}
	return "", "", false
}

// cleanList normalizes spacing in a comma-joined list value.
func cleanList(value string) string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

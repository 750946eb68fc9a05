package pipeline

import (
	"reflect"
	"testing"
)

func TestExtractFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		block       Block
		wantContent string
		wantMeta    map[string]string
	}{
		{
			name: "organizational block",
			block: Block{
				Title:   "Acme Sponsorship Call",
				RawText: "Topic: sponsorship\nGuests: Acme Corp, Jane Doe\nYear: 2024\nNotes: Acme offered $5000 sponsorship.",
			},
			wantContent: "Acme offered $5000 sponsorship.",
			wantMeta: map[string]string{
				MetaTitle:  "Acme Sponsorship Call",
				MetaTopic:  "sponsorship",
				MetaGuests: "Acme Corp, Jane Doe",
				MetaYear:   "2024",
			},
		},
		{
			name: "multiline notes run to end of block",
			block: Block{
				Title:   "CS 355 notes",
				RawText: "Topic: CS\nNotes: B-trees maintain balance\nvia node splitting.\nTopic: this line stays in notes",
			},
			wantContent: "B-trees maintain balance\nvia node splitting.\nTopic: this line stays in notes",
			wantMeta: map[string]string{
				MetaTitle: "CS 355 notes",
				MetaTopic: "cs",
			},
		},
		{
			name: "unknown topic coerced to misc",
			block: Block{
				Title:   "Random",
				RawText: "Topic: underwater hockey\nNotes: something",
			},
			wantContent: "something",
			wantMeta: map[string]string{
				MetaTitle: "Random",
				MetaTopic: "misc",
			},
		},
		{
			name: "no fields falls back to raw text",
			block: Block{
				Title:   "Untitled",
				RawText: "just unstructured text",
			},
			wantContent: "just unstructured text",
			wantMeta: map[string]string{
				MetaTitle: "Untitled",
				MetaTopic: "misc",
			},
		},
		{
			name: "title field overrides block title",
			block: Block{
				Title:   "Untitled",
				RawText: "Title: Board Meeting\nTopic: meeting\nNotes: quorum reached",
			},
			wantContent: "quorum reached",
			wantMeta: map[string]string{
				MetaTitle: "Board Meeting",
				MetaTopic: "meeting",
			},
		},
		{
			name: "researched items topic survives",
			block: Block{
				Title:   "Untitled",
				RawText: "Topic: Researched Items, B-trees\nNotes: node splitting keeps trees balanced",
			},
			wantContent: "node splitting keeps trees balanced",
			wantMeta: map[string]string{
				MetaTitle: "Untitled",
				MetaTopic: "Researched Items, B-trees",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := ExtractFields(tt.block)
			if doc.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", doc.Content, tt.wantContent)
			}
			if !reflect.DeepEqual(doc.Metadata, tt.wantMeta) {
				t.Errorf("metadata = %#v, want %#v", doc.Metadata, tt.wantMeta)
			}
		})
	}
}

package pipeline

import (
	"reflect"
	"testing"
)

func TestParseBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []Block
	}{
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "whitespace only",
			raw:  "  \n\t\n",
			want: nil,
		},
		{
			name: "no delimiters yields single block with empty title",
			raw:  "just some plain text\nwith two lines",
			want: []Block{{Title: "", RawText: "just some plain text\nwith two lines"}},
		},
		{
			name: "inline titles",
			raw: "preamble to discard\n" +
				"--- Acme Sponsorship Call ---\n" +
				"Topic: sponsorship\nNotes: Acme offered $5000.\n" +
				"--- CS 355 notes ---\n" +
				"Topic: CS\nNotes: B-trees maintain balance.\n",
			want: []Block{
				{Title: "Acme Sponsorship Call", RawText: "Topic: sponsorship\nNotes: Acme offered $5000."},
				{Title: "CS 355 notes", RawText: "Topic: CS\nNotes: B-trees maintain balance."},
			},
		},
		{
			name: "bare delimiter with title line in body",
			raw:  "---\nWeekly Standup\nTopic: meeting\nNotes: discussed roadmap\n",
			want: []Block{
				{Title: "Weekly Standup", RawText: "Topic: meeting\nNotes: discussed roadmap"},
			},
		},
		{
			name: "bare delimiter with no title line",
			raw:  "----\nTopic: meeting\nNotes: no title here\n",
			want: []Block{
				{Title: "Untitled", RawText: "Topic: meeting\nNotes: no title here"},
			},
		},
		{
			name: "empty blocks are skipped",
			raw:  "--- First ---\nNotes: kept\n--- Empty ---\n\n--- Last ---\nNotes: also kept\n",
			want: []Block{
				{Title: "First", RawText: "Notes: kept"},
				{Title: "Last", RawText: "Notes: also kept"},
			},
		},
		{
			name: "long dash runs still delimit",
			raw:  "--------\nNotes: content after a long rule\n",
			want: []Block{
				{Title: "Untitled", RawText: "Notes: content after a long rule"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseBlocks(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBlocks() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseBlocksPreservesOrder(t *testing.T) {
	t.Parallel()

	raw := "--- A ---\nNotes: one\n--- B ---\nNotes: two\n--- C ---\nNotes: three\n"
	got := ParseBlocks(raw)

	titles := make([]string, len(got))
	for i, b := range got {
		titles[i] = b.Title
	}
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("block order = %v, want %v", titles, want)
	}
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aryal0/secondbrain/internal/config"
)

func TestQualifiedModelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "gemini default",
			cfg:  config.Config{Provider: config.ProviderGemini, ModelName: "gemini-2.5-flash"},
			want: "googleai/gemini-2.5-flash",
		},
		{
			name: "openai",
			cfg:  config.Config{Provider: config.ProviderOpenAI, ModelName: "gpt-4o-mini"},
			want: "openai/gpt-4o-mini",
		},
		{
			name: "empty provider falls back to gemini",
			cfg:  config.Config{ModelName: "gemini-2.5-flash"},
			want: "googleai/gemini-2.5-flash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := qualifiedModelName(&tt.cfg)
			if got != tt.want {
				t.Errorf("qualifiedModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadIngestInputFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("meeting notes"), 0o600); err != nil {
		t.Fatal(err)
	}

	text, source, err := readIngestInput([]string{path})
	if err != nil {
		t.Fatalf("readIngestInput() error = %v", err)
	}
	if text != "meeting notes" {
		t.Errorf("text = %q, want %q", text, "meeting notes")
	}
	if source != "notes.txt" {
		t.Errorf("source = %q, want %q", source, "notes.txt")
	}
}

func TestReadIngestInputMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := readIngestInput([]string{filepath.Join(t.TempDir(), "absent.txt")})
	if err == nil {
		t.Fatal("readIngestInput() expected error for missing file")
	}
}

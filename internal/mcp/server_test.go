package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aryal0/secondbrain/internal/brain"
	"github.com/aryal0/secondbrain/internal/pipeline"
	"github.com/aryal0/secondbrain/internal/research"
	"github.com/aryal0/secondbrain/internal/testutil"
)

// unreachableFetcher fails every fetch. Used where the research tool must
// reject its input before fetching anything.
type unreachableFetcher struct{}

func (unreachableFetcher) Fetch(context.Context, string) (research.Article, error) {
	return research.Article{}, errors.New("fetcher must not be called")
}

func newTestEngine(t *testing.T) *brain.Engine {
	t.Helper()

	gen := testutil.NewMockGenerator("misc")
	logger := testutil.DiscardLogger()
	store := testutil.NewInMemoryStore()
	return brain.NewEngine(
		func(string) brain.KnowledgeStore { return store },
		pipeline.NewSummarizer(gen, logger),
		brain.NewClassifier(gen, logger),
		gen,
		brain.Config{LockDir: t.TempDir()},
		logger,
	)
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	tests := []struct {
		name    string
		cfg     Config
		engine  *brain.Engine
		wantErr bool
	}{
		{
			name:   "valid",
			cfg:    Config{Name: "secondbrain", Version: "1.0.0"},
			engine: engine,
		},
		{
			name:    "missing name",
			cfg:     Config{Version: "1.0.0"},
			engine:  engine,
			wantErr: true,
		},
		{
			name:    "missing version",
			cfg:     Config{Name: "secondbrain"},
			engine:  engine,
			wantErr: true,
		},
		{
			name:    "missing engine",
			cfg:     Config{Name: "secondbrain", Version: "1.0.0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(tt.cfg, tt.engine, nil, testutil.DiscardLogger())
			if tt.wantErr {
				if err == nil {
					t.Error("NewServer() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewServer() error: %v", err)
			}
			if srv == nil {
				t.Fatal("NewServer() returned nil server")
			}
		})
	}
}

func TestResearchIngestRequiresUser(t *testing.T) {
	t.Parallel()

	gen := testutil.NewMockGenerator("misc")
	researcher := research.New(gen, unreachableFetcher{}, testutil.DiscardLogger())

	srv, err := NewServer(Config{Name: "secondbrain", Version: "1.0.0"},
		newTestEngine(t), researcher, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	result, err := srv.handleResearch(context.Background(), ResearchInput{
		URLs:   []string{"https://example.com/article"},
		Ingest: true,
	})
	if err != nil {
		t.Fatalf("handleResearch() error: %v", err)
	}
	if !result.IsError {
		t.Fatal("handleResearch() result not flagged as error")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", result.Content[0])
	}
	if !strings.Contains(text.Text, "user is required") {
		t.Errorf("error text = %q, want user requirement message", text.Text)
	}
	if gen.CallCount() != 0 {
		t.Errorf("model called %d times, want 0 before valid input", gen.CallCount())
	}
}

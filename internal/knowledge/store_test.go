package knowledge_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/aryal0/secondbrain/internal/knowledge"
	"github.com/aryal0/secondbrain/internal/testutil"
)

// mockQuerier implements Querier with an in-memory map keyed by collection.
type mockQuerier struct {
	mu         sync.Mutex
	rows       map[string][]knowledge.DocumentRow
	insertErr  error
	searchErr  error
	lastFilter []byte
	lastLimit  int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{rows: make(map[string][]knowledge.DocumentRow)}
}

func (m *mockQuerier) InsertDocuments(_ context.Context, rows []knowledge.DocumentRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, r := range rows {
		m.rows[r.Collection] = append(m.rows[r.Collection], r)
	}
	return nil
}

func (m *mockQuerier) ReplaceCollection(_ context.Context, collection string, rows []knowledge.DocumentRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows[collection] = append([]knowledge.DocumentRow(nil), rows...)
	return nil
}

func (m *mockQuerier) SearchDocuments(_ context.Context, collection string, _ pgvector.Vector, filter []byte, limit int) ([]knowledge.SearchRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	m.lastFilter = filter
	m.lastLimit = limit

	var out []knowledge.SearchRow
	for _, r := range m.rows[collection] {
		if len(out) == limit {
			break
		}
		out = append(out, knowledge.SearchRow{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			CreatedAt:  r.CreatedAt,
			Similarity: 0.9,
		})
	}
	return out, nil
}

func (m *mockQuerier) CountDocuments(_ context.Context, collection string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows[collection])), nil
}

func TestCollectionKey(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		if knowledge.CollectionKey("alice") != knowledge.CollectionKey("alice") {
			t.Error("same identity produced different keys")
		}
	})

	t.Run("distinct identities distinct keys", func(t *testing.T) {
		t.Parallel()
		// Both sanitize to "user_1" but must not collide.
		if knowledge.CollectionKey("user 1") == knowledge.CollectionKey("user-1") {
			t.Error("distinct identities collided")
		}
	})

	t.Run("namespace safe", func(t *testing.T) {
		t.Parallel()
		key := knowledge.CollectionKey("Ada Lovelace <ada@example.com>")
		for _, r := range key {
			valid := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
			if !valid {
				t.Fatalf("key %q contains invalid rune %q", key, r)
			}
		}
	})

	t.Run("empty identity", func(t *testing.T) {
		t.Parallel()
		if key := knowledge.CollectionKey(""); !strings.HasPrefix(key, "anonymous_") {
			t.Errorf("key = %q, want anonymous prefix", key)
		}
	})
}

func TestStoreAddIsIncremental(t *testing.T) {
	t.Parallel()

	querier := newMockQuerier()
	store := knowledge.New(querier, testutil.NewMockEmbedder(8), "alice", testutil.DiscardLogger())
	ctx := context.Background()

	first := []knowledge.Document{
		{ID: "1", Content: "acme offered sponsorship", Metadata: map[string]string{"topic": "sponsorship"}},
		{ID: "2", Content: "meeting about roadmap", Metadata: map[string]string{"topic": "meeting"}},
	}
	second := []knowledge.Document{
		{ID: "3", Content: "b-trees split nodes", Metadata: map[string]string{"topic": "cs"}},
	}

	if err := store.Add(ctx, first); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := store.Add(ctx, second); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestStoreRebuildIsDestructive(t *testing.T) {
	t.Parallel()

	querier := newMockQuerier()
	store := knowledge.New(querier, testutil.NewMockEmbedder(8), "alice", testutil.DiscardLogger())
	ctx := context.Background()

	if err := store.Add(ctx, []knowledge.Document{
		{ID: "1", Content: "old knowledge"},
		{ID: "2", Content: "more old knowledge"},
	}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	if err := store.Rebuild(ctx, []knowledge.Document{
		{ID: "3", Content: "fresh knowledge"},
	}); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after rebuild", count)
	}
}

func TestStoreSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	embedder := testutil.NewMockEmbedder(8)
	store := knowledge.New(newMockQuerier(), embedder, "alice", testutil.DiscardLogger())

	for _, query := range []string{"", "   ", "\n\t"} {
		if _, err := store.Search(context.Background(), query); !errors.Is(err, knowledge.ErrInvalidQuery) {
			t.Errorf("Search(%q) error = %v, want ErrInvalidQuery", query, err)
		}
	}
	if got := embedder.CallCount(); got != 0 {
		t.Errorf("embedder called %d times for blank queries, want 0", got)
	}
}

func TestStoreSearchEmptyCollection(t *testing.T) {
	t.Parallel()

	store := knowledge.New(newMockQuerier(), testutil.NewMockEmbedder(8), "alice", testutil.DiscardLogger())

	results, err := store.Search(context.Background(), "anything at all")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty collection, want 0", len(results))
	}
}

func TestStoreSearchOptions(t *testing.T) {
	t.Parallel()

	querier := newMockQuerier()
	store := knowledge.New(querier, testutil.NewMockEmbedder(8), "alice", testutil.DiscardLogger())
	ctx := context.Background()

	if err := store.Add(ctx, []knowledge.Document{
		{ID: "1", Content: "acme sponsorship", Metadata: map[string]string{"topic": "sponsorship", "title": "Acme"}},
	}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	results, err := store.Search(ctx, "sponsorship",
		knowledge.WithTopK(6),
		knowledge.WithFilter("topic", "sponsorship"),
	)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Document.Metadata["title"] != "Acme" {
		t.Errorf("metadata title = %q, want %q", results[0].Document.Metadata["title"], "Acme")
	}

	if querier.lastLimit != 6 {
		t.Errorf("limit = %d, want 6", querier.lastLimit)
	}
	var filter map[string]string
	if err := json.Unmarshal(querier.lastFilter, &filter); err != nil {
		t.Fatalf("unmarshal filter: %v", err)
	}
	if filter["topic"] != "sponsorship" {
		t.Errorf("filter = %v, want topic=sponsorship", filter)
	}
}

func TestStoreAddEmbedderFailure(t *testing.T) {
	t.Parallel()

	embedder := testutil.NewMockEmbedder(8)
	embedder.SetError(errors.New("quota exceeded"))
	store := knowledge.New(newMockQuerier(), embedder, "alice", testutil.DiscardLogger())

	err := store.Add(context.Background(), []knowledge.Document{{ID: "1", Content: "text"}})
	if !errors.Is(err, knowledge.ErrEmbedding) {
		t.Errorf("Add() error = %v, want ErrEmbedding", err)
	}
}

func TestStoreSearchQuerierFailure(t *testing.T) {
	t.Parallel()

	querier := newMockQuerier()
	querier.searchErr = errors.New("relation missing")
	store := knowledge.New(querier, testutil.NewMockEmbedder(8), "alice", testutil.DiscardLogger())

	_, err := store.Search(context.Background(), "anything")
	if !errors.Is(err, knowledge.ErrRetrieval) {
		t.Errorf("Search() error = %v, want ErrRetrieval", err)
	}
}

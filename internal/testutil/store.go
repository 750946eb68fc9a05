package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aryal0/secondbrain/internal/knowledge"
)

// InMemoryStore is a deterministic knowledge store for engine tests. It
// ranks documents by naive token overlap with the query, which stands in
// for vector similarity well enough to make retrieval predictable.
//
// Thread-safe for concurrent use.
type InMemoryStore struct {
	mu          sync.Mutex
	docs        []knowledge.Document
	searchCalls []knowledge.SearchPlan
	queries     []string
	addErr      error
	searchErr   error
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// SetAddError makes Add and Rebuild fail with err.
func (s *InMemoryStore) SetAddError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addErr = err
}

// SetSearchError makes Search fail with err.
func (s *InMemoryStore) SetSearchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchErr = err
}

// Add appends documents.
func (s *InMemoryStore) Add(_ context.Context, docs []knowledge.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.docs = append(s.docs, docs...)
	return nil
}

// Rebuild replaces all documents.
func (s *InMemoryStore) Rebuild(_ context.Context, docs []knowledge.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.docs = append([]knowledge.Document(nil), docs...)
	return nil
}

// Count returns the number of stored documents.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), nil
}

// Search returns documents sharing tokens with query, best first,
// honoring the plan's filter and top-k limit. Documents with zero
// overlap are not returned.
func (s *InMemoryStore) Search(_ context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	plan := knowledge.PlanSearch(opts)
	s.searchCalls = append(s.searchCalls, plan)
	s.queries = append(s.queries, query)

	queryTokens := tokenize(query)
	var results []knowledge.Result
	for _, doc := range s.docs {
		if !matchesFilter(doc.Metadata, plan.Filter) {
			continue
		}
		score := overlap(queryTokens, tokenize(doc.Content))
		if score == 0 {
			continue
		}
		results = append(results, knowledge.Result{
			Document:   doc,
			Similarity: float32(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > plan.TopK {
		results = results[:plan.TopK]
	}
	return results, nil
}

// SearchCalls returns the plans of all Search calls made.
func (s *InMemoryStore) SearchCalls() []knowledge.SearchPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]knowledge.SearchPlan(nil), s.searchCalls...)
}

// SearchCount returns the number of Search calls made.
func (s *InMemoryStore) SearchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searchCalls)
}

// matchesFilter mirrors the production search predicate: metadata values
// are comma-separated label sets, and a filter value matches when it is
// one element of the stored set.
func matchesFilter(meta, filter map[string]string) bool {
	for k, v := range filter {
		if !containsLabel(meta[k], v) {
			return false
		}
	}
	return true
}

func containsLabel(stored, label string) bool {
	for part := range strings.SplitSeq(stored, ",") {
		if strings.TrimSpace(part) == label {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// tokens shorter than three runes.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		return !alnum
	})
	var out []string
	for _, f := range fields {
		if len(f) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

// overlap counts query tokens appearing in the document, counting a
// match when either token is a prefix of the other so that simple
// singular/plural variation still matches.
func overlap(query, doc []string) int {
	score := 0
	for _, q := range query {
		for _, d := range doc {
			if strings.HasPrefix(d, q) || strings.HasPrefix(q, d) {
				score++
				break
			}
		}
	}
	return score
}

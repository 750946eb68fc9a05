package knowledge

import "time"

// Document represents one embeddable chunk of knowledge.
type Document struct {
	ID       string            // Unique identifier
	Content  string            // Chunk text content
	Metadata map[string]string // title, topic, guests, year, source_file, chunk_idx
	CreateAt time.Time         // Creation timestamp
}

// Result represents a single search result with similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity score (0-1)
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	filter  map[string]string
	timeout time.Duration
}

// DefaultSearchTimeout bounds a single similarity search, embedding
// generation included.
const DefaultSearchTimeout = 10 * time.Second

// WithTopK sets the maximum number of results to return.
// Default is 5 if not specified.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithFilter adds a metadata filter to restrict search results.
// Multiple calls add additional filters with AND logic. Stored values
// are comma-separated label sets, and a filter value matches when it is
// one element of the set, so WithFilter("topic", "sponsorship") matches
// chunks labeled "sponsorship" as well as "sponsorship,meeting".
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

// WithTimeout overrides the default search timeout.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// SearchPlan is the resolved view of a set of search options. Alternate
// store implementations use it to honor the same option surface.
type SearchPlan struct {
	TopK    int
	Filter  map[string]string
	Timeout time.Duration
}

// PlanSearch resolves opts into a SearchPlan.
func PlanSearch(opts []SearchOption) SearchPlan {
	cfg := buildSearchConfig(opts)
	return SearchPlan{
		TopK:    cfg.topK,
		Filter:  cfg.filter,
		Timeout: cfg.timeout,
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    5,
		timeout: DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

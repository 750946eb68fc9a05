package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/aryal0/secondbrain/internal/log"
)

// Querier defines the database operations the store needs. The interface
// is defined here, on the consumer side, so the store can run against the
// pgx implementation in production and a hand-written mock in tests.
type Querier interface {
	// InsertDocuments appends rows atomically.
	InsertDocuments(ctx context.Context, rows []DocumentRow) error

	// ReplaceCollection deletes every row in the collection and inserts
	// the given rows in one transaction.
	ReplaceCollection(ctx context.Context, collection string, rows []DocumentRow) error

	// SearchDocuments returns the closest rows by cosine distance,
	// optionally restricted to rows matching filter. Each filter value
	// matches by membership in the row's comma-separated metadata set.
	SearchDocuments(ctx context.Context, collection string, embedding pgvector.Vector, filter []byte, limit int) ([]SearchRow, error)

	// CountDocuments counts rows in the collection.
	CountDocuments(ctx context.Context, collection string) (int64, error)
}

// DocumentRow is the storage representation of a Document.
type DocumentRow struct {
	ID         string
	Collection string
	Content    string
	Embedding  pgvector.Vector
	Metadata   []byte
	CreatedAt  time.Time
}

// SearchRow is one similarity search hit.
type SearchRow struct {
	ID         string
	Content    string
	Metadata   []byte
	CreatedAt  time.Time
	Similarity float32
}

// Store manages one identity's embedded chunks. It generates embeddings
// through the configured embedder and persists them via the Querier.
//
// Store is safe for concurrent use. Concurrent writes to the same
// collection are serialized by the caller.
type Store struct {
	queries    Querier
	embedder   ai.Embedder
	collection string
	logger     log.Logger
}

// New creates a Store scoped to the collection derived from identity.
func New(querier Querier, embedder ai.Embedder, identity string, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:    querier,
		embedder:   embedder,
		collection: CollectionKey(identity),
		logger:     logger,
	}
}

// Collection returns the derived collection key.
func (s *Store) Collection() string {
	return s.collection
}

// Add embeds docs and appends them to the collection. The write is
// durable once Add returns nil. Documents keep their input order.
func (s *Store) Add(ctx context.Context, docs []Document) error {
	rows, err := s.toRows(ctx, docs)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.queries.InsertDocuments(ctx, rows); err != nil {
		return fmt.Errorf("%w: insert: %w", ErrEmbedding, err)
	}
	s.logger.Debug("added documents", "collection", s.collection, "count", len(rows))
	return nil
}

// Rebuild replaces the entire collection with docs. Destructive: every
// previously stored chunk for this identity is discarded.
func (s *Store) Rebuild(ctx context.Context, docs []Document) error {
	rows, err := s.toRows(ctx, docs)
	if err != nil {
		return err
	}

	if err := s.queries.ReplaceCollection(ctx, s.collection, rows); err != nil {
		return fmt.Errorf("%w: replace collection: %w", ErrEmbedding, err)
	}
	s.logger.Info("rebuilt collection", "collection", s.collection, "count", len(rows))
	return nil
}

// Search returns the most similar documents to query, ordered by
// similarity. A blank query fails with ErrInvalidQuery before any
// embedder or store call. An empty collection yields an empty slice,
// not an error.
//
// Example:
//
//	results, err := store.Search(ctx, "sponsorship offers",
//	    knowledge.WithTopK(6),
//	    knowledge.WithFilter("topic", "sponsorship"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query text", ErrInvalidQuery)
	}

	cfg := buildSearchConfig(opts)
	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embedOne(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %w", ErrRetrieval, err)
	}

	var filterJSON []byte
	if len(cfg.filter) > 0 {
		// Filter JSON always comes from json.Marshal and reaches the
		// query as a bind parameter for the set-membership predicate,
		// never via string interpolation.
		filterJSON, err = json.Marshal(cfg.filter)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal filter: %w", ErrRetrieval, err)
		}
	}

	rows, err := s.queries.SearchDocuments(queryCtx, s.collection, embedding, filterJSON, cfg.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search timeout: %w", ErrRetrieval, err)
		}
		return nil, fmt.Errorf("%w: search: %w", ErrRetrieval, err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		meta := make(map[string]string)
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("%w: unmarshal metadata for %q: %w", ErrRetrieval, row.ID, err)
			}
		}
		results = append(results, Result{
			Document: Document{
				ID:       row.ID,
				Content:  row.Content,
				Metadata: meta,
				CreateAt: row.CreatedAt,
			},
			Similarity: row.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of chunks stored for this identity.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountDocuments(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrRetrieval, err)
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// toRows embeds all documents in one request and builds storage rows in
// input order.
func (s *Store) toRows(ctx context.Context, docs []Document) ([]DocumentRow, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	input := make([]*ai.Document, len(docs))
	for i, doc := range docs {
		input[i] = ai.DocumentFromText(doc.Content, nil)
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(docs) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d documents",
			ErrEmbedding, len(resp.Embeddings), len(docs))
	}

	rows := make([]DocumentRow, len(docs))
	for i, doc := range docs {
		if len(resp.Embeddings[i].Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for document %q", ErrEmbedding, doc.ID)
		}
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal metadata for %q: %w", ErrEmbedding, doc.ID, err)
		}
		createdAt := doc.CreateAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows[i] = DocumentRow{
			ID:         doc.ID,
			Collection: s.collection,
			Content:    doc.Content,
			Embedding:  pgvector.NewVector(resp.Embeddings[i].Embedding),
			Metadata:   metadataJSON,
			CreatedAt:  createdAt,
		}
	}
	return rows, nil
}

func (s *Store) embedOne(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const insertDocumentSQL = `
INSERT INTO documents (id, collection, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const deleteCollectionSQL = `
DELETE FROM documents WHERE collection = $1`

// Metadata values are comma-separated label sets (a multi-topic chunk
// stores "sponsorship,meeting"), so the filter matches by set membership:
// a row qualifies when every filter value is one element of the
// corresponding stored set, not when it equals the whole joined string.
const searchDocumentsSQL = `
SELECT id, content, metadata, created_at, 1 - (embedding <=> $1) AS similarity
FROM documents
WHERE collection = $2
  AND ($3::jsonb IS NULL OR NOT EXISTS (
    SELECT 1
    FROM jsonb_each_text($3::jsonb) AS f(key, value)
    WHERE f.value NOT IN (
      SELECT btrim(part)
      FROM unnest(string_to_array(metadata->>f.key, ',')) AS part
    )
  ))
ORDER BY embedding <=> $1
LIMIT $4`

const countDocumentsSQL = `
SELECT COUNT(*) FROM documents WHERE collection = $1`

// PgxQuerier implements Querier on a pgx connection pool. Mutations run
// inside transactions so a failed batch leaves the collection untouched.
type PgxQuerier struct {
	pool *pgxpool.Pool
}

// NewPgxQuerier creates a PgxQuerier. The pool must have pgvector types
// registered on each connection.
func NewPgxQuerier(pool *pgxpool.Pool) *PgxQuerier {
	return &PgxQuerier{pool: pool}
}

// InsertDocuments appends rows in one transaction.
func (q *PgxQuerier) InsertDocuments(ctx context.Context, rows []DocumentRow) error {
	if len(rows) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		return sendInserts(ctx, tx, rows)
	})
}

// ReplaceCollection clears the collection and inserts rows atomically.
func (q *PgxQuerier) ReplaceCollection(ctx context.Context, collection string, rows []DocumentRow) error {
	return pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteCollectionSQL, collection); err != nil {
			return fmt.Errorf("delete collection %q: %w", collection, err)
		}
		return sendInserts(ctx, tx, rows)
	})
}

func sendInserts(ctx context.Context, tx pgx.Tx, rows []DocumentRow) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(insertDocumentSQL,
			row.ID, row.Collection, row.Content, row.Embedding, row.Metadata, row.CreatedAt)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return results.Close()
}

// SearchDocuments runs the similarity query. A nil filter disables the
// metadata predicate.
func (q *PgxQuerier) SearchDocuments(ctx context.Context, collection string, embedding pgvector.Vector, filter []byte, limit int) ([]SearchRow, error) {
	rows, err := q.pool.Query(ctx, searchDocumentsSQL, embedding, collection, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}

// CountDocuments counts rows in the collection.
func (q *PgxQuerier) CountDocuments(ctx context.Context, collection string) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, countDocumentsSQL, collection).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

package knowledge

import "errors"

var (
	// ErrInvalidQuery indicates an empty or blank query string. The
	// failure happens before any embedder or store call.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbedding indicates the store failed to embed or persist
	// documents.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrieval indicates similarity search failed.
	ErrRetrieval = errors.New("retrieval failed")
)

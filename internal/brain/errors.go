package brain

import "errors"

var (
	// ErrInvalidInput indicates an empty or blank question or ingestion
	// text. Caught at the boundary; never reaches the model or store.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClassification indicates topic classification failed. Always
	// recoverable: callers fall back to unfiltered retrieval.
	ErrClassification = errors.New("classification failed")
)

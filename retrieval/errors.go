package retrieval

import "errors"

var (
	// ErrStoreRequired is returned when a vector repository is not provided.
	ErrStoreRequired = errors.New("vector repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidLimit is returned for a non-positive search limit.
	ErrInvalidLimit = errors.New("search limit must be positive")
)

package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a vector repository is not provided.
	ErrStoreRequired = errors.New("vector repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyDocument is returned when the source document contains no text.
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrInvalidChunking is returned for impossible splitter geometry,
	// such as an overlap that is not smaller than the chunk size.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrUnsupportedFormat is returned for source documents that cannot be
	// parsed into plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

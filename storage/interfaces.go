package storage

import (
	"context"

	"github.com/verdantlabs/dossier/core"
)

// VectorRepository provides operations for the vector store holding embedded
// document chunks. Implementations must be thread-safe: all query-time
// operations are reads, and ingestion is a single-writer batch append.
type VectorRepository interface {
	// AddRecords appends one or more stored records.
	// Records with Id=0 get a unique nonce-derived ID assigned; InsertedAt
	// is set when zero.
	// No deduplication is performed: adding the same text twice stores it twice.
	// Returns the records with IDs and timestamps populated.
	AddRecords(ctx context.Context, records ...*core.StoredRecord) ([]*core.StoredRecord, error)

	// Search returns up to limit records nearest to the given vector,
	// ordered by similarity score (highest first). Tie order between equal
	// scores is backend-defined.
	Search(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error)

	// CountRecords returns the total number of stored records.
	CountRecords(ctx context.Context) (int64, error)

	// Clear removes every stored record. This is the administrative
	// whole-collection delete; there is no per-record removal.
	Clear(ctx context.Context) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// HistoryRepository provides operations for per-user conversation history.
// Turns are append-only and returned in insertion order.
type HistoryRepository interface {
	// AppendTurns appends conversation turns to a user's history.
	AppendTurns(ctx context.Context, userID string, turns ...*core.ConversationTurn) error

	// GetTurns returns all turns for a user in insertion order.
	// Returns an empty slice for an unknown user.
	GetTurns(ctx context.Context, userID string) ([]*core.ConversationTurn, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

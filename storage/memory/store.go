package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
)

// VectorStore implements storage.VectorRepository with an exact in-memory
// cosine-similarity scan. It backs tests and local development where no
// MongoDB Atlas index is available. A query vector identical to a stored
// record's vector is guaranteed to rank first.
type VectorStore struct {
	mu      sync.RWMutex
	records []*core.StoredRecord
	closed  bool
	logger  *slog.Logger
}

var _ storage.VectorRepository = (*VectorStore)(nil)

// NewVectorStore creates an empty in-memory vector store.
//
// Returns storage.VectorRepository interface for consistency with the
// production constructor.
func NewVectorStore() storage.VectorRepository {
	return &VectorStore{
		logger: slog.Default().With("component", "memory-store"),
	}
}

// AddRecords appends records. Like the Mongo store, no deduplication is
// performed: identical text stored twice yields two records.
func (s *VectorStore) AddRecords(ctx context.Context, records ...*core.StoredRecord) ([]*core.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	now := time.Now().UTC()
	for _, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return nil, err
		}
		if record.Id == 0 {
			record.Id = core.UniqueRecordID(record.Text)
		}
		if record.InsertedAt.IsZero() {
			record.InsertedAt = now
		}
		stored := *record
		s.records = append(s.records, &stored)
	}

	return records, nil
}

// Search scans all records and returns up to limit matches ordered by
// cosine similarity, highest first. Ties keep insertion order.
func (s *VectorStore) Search(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: non-positive limit %d", storage.ErrInvalidQuery, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	results := make([]*core.SearchResult, 0, len(s.records))
	for _, record := range s.records {
		if len(record.Vector) != len(vector) {
			return nil, fmt.Errorf("%w: query %d, stored %d",
				storage.ErrVectorDimension, len(vector), len(record.Vector))
		}
		copied := *record
		results = append(results, &core.SearchResult{
			Record: &copied,
			Score:  cosineSimilarity(vector, record.Vector),
		})
	}

	// Stable sort keeps insertion order between equal scores
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// CountRecords returns the number of stored records.
func (s *VectorStore) CountRecords(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, storage.ErrStorageClosed
	}
	return int64(len(s.records)), nil
}

// Clear removes all stored records.
func (s *VectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	s.records = nil
	return nil
}

// Close marks the store closed; further operations fail.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

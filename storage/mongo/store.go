// Copyright 2025 Verdant Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds connection settings for the Mongo vector store.
type Config struct {
	// URI is the MongoDB connection string.
	// Default: "mongodb://localhost:27017"
	URI string

	// Database is the database name. Default: "dossier"
	Database string

	// Collection holds the embedded chunks. Default: "chat-rag"
	Collection string

	// Index is the Atlas Vector Search index name. Default: "vector_index"
	Index string

	// Path is the indexed embedding field. Default: "embedding"
	Path string
}

// DefaultConfig returns a Config with local development defaults.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "dossier",
		Collection: "chat-rag",
		Index:      "vector_index",
		Path:       "embedding",
	}
}

// Normalize fills empty fields with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.URI == "" {
		c.URI = def.URI
	}
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Collection == "" {
		c.Collection = def.Collection
	}
	if c.Index == "" {
		c.Index = def.Index
	}
	if c.Path == "" {
		c.Path = def.Path
	}
}

// VectorStore implements storage.VectorRepository backed by MongoDB Atlas
// Vector Search. Nearest-neighbor ranking is delegated entirely to the
// server-side $vectorSearch stage.
type VectorStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	index      string
	path       string
	logger     *slog.Logger
}

var _ storage.VectorRepository = (*VectorStore)(nil)

// recordDocument is the persisted shape of a core.StoredRecord.
// IDs are stored as fixed-width hex strings: BSON has no unsigned 64-bit
// integer, and content hashes routinely overflow int64.
type recordDocument struct {
	ID         string          `bson:"_id"`
	Text       string          `bson:"text"`
	Embedding  []float32       `bson:"embedding"`
	Source     core.SourceInfo `bson:"source"`
	InsertedAt time.Time       `bson:"inserted_at"`
}

// searchHit is a recordDocument with the similarity score projected by
// the $vectorSearch stage.
type searchHit struct {
	recordDocument `bson:",inline"`
	Score          float32 `bson:"score"`
}

// NewVectorStore connects to MongoDB and returns a vector repository over
// the configured collection. The connection is verified with a ping and is
// intended to be opened once at process start and shared.
//
// Returns storage.VectorRepository interface to enforce abstraction.
func NewVectorStore(ctx context.Context, config *Config) (storage.VectorRepository, error) {
	config.Normalize()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &VectorStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
		index:      config.Index,
		path:       config.Path,
		logger:     slog.Default().With("component", "mongo-store"),
	}, nil
}

// AddRecords appends records to the collection. Records with Id=0 get a
// nonce-derived ID assigned; the _id index is unique, so two records must
// never share an ID. There is no deduplication: a chunk ingested in two
// batches is stored twice, and so is the same text added twice over the API.
func (s *VectorStore) AddRecords(ctx context.Context, records ...*core.StoredRecord) ([]*core.StoredRecord, error) {
	if len(records) == 0 {
		return records, nil
	}

	docs := make([]interface{}, len(records))
	now := time.Now().UTC()
	for i, record := range records {
		doc, err := newRecordDocument(record, now)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		s.logger.Error("failed to insert records", "count", len(records), "err", err)
		return nil, fmt.Errorf("inserting records: %w", err)
	}

	s.logger.Debug("inserted records", "count", len(records))
	return records, nil
}

// Search runs a $vectorSearch aggregation and returns up to limit matches,
// nearest first. Tie order between equal scores is whatever the server
// returns.
func (s *VectorStore) Search(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: non-positive limit %d", storage.ErrInvalidQuery, limit)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.index},
			{Key: "path", Value: s.path},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: limit * 10},
			{Key: "limit", Value: limit},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("vector search failed", "err", err)
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cursor.Close(ctx)

	var hits []searchHit
	if err := cursor.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	results := make([]*core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		id, err := parseID(hit.ID)
		if err != nil {
			s.logger.Warn("skipping record with malformed id", "id", hit.ID, "err", err)
			continue
		}
		results = append(results, &core.SearchResult{
			Record: &core.StoredRecord{
				Id:         id,
				Text:       hit.Text,
				Vector:     hit.Embedding,
				Source:     hit.Source,
				InsertedAt: hit.InsertedAt,
			},
			Score: hit.Score,
		})
	}

	s.logger.Debug("vector search completed", "hits", len(results), "limit", limit)
	return results, nil
}

// CountRecords returns the number of stored records.
func (s *VectorStore) CountRecords(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// Clear removes every record in the collection.
func (s *VectorStore) Clear(ctx context.Context) error {
	result, err := s.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("clearing collection: %w", err)
	}
	s.logger.Info("cleared vector collection", "deleted", result.DeletedCount)
	return nil
}

// Close disconnects the client.
func (s *VectorStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// newRecordDocument validates a record, fills in a missing ID and timestamp,
// and returns its persisted form.
func newRecordDocument(record *core.StoredRecord, now time.Time) (recordDocument, error) {
	if err := core.ValidateRecord(record); err != nil {
		return recordDocument{}, err
	}
	if record.Id == 0 {
		record.Id = core.UniqueRecordID(record.Text)
	}
	if record.InsertedAt.IsZero() {
		record.InsertedAt = now
	}
	return recordDocument{
		ID:         formatID(record.Id),
		Text:       record.Text,
		Embedding:  record.Vector,
		Source:     record.Source,
		InsertedAt: record.InsertedAt,
	}, nil
}

// formatID renders an ID as a fixed-width hex string.
func formatID(id core.ID) string {
	return fmt.Sprintf("%016x", uint64(id))
}

// parseID parses a fixed-width hex string back into an ID.
func parseID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

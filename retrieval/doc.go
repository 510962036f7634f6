// Package retrieval serves semantic search over stored document records.
// It embeds incoming queries with the same provider used at ingestion time
// and delegates nearest-neighbor ranking to the vector repository.
package retrieval

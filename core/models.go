package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SpeakerType identifies the source of a conversation message.
type SpeakerType int

const (
	// SpeakerTypeHuman represents a human user.
	SpeakerTypeHuman SpeakerType = iota + 1
	// SpeakerTypeAI represents the assistant.
	SpeakerTypeAI
)

// DocumentChunk is a contiguous span of text cut from a source document.
// Chunks are the unit of embedding and retrieval. They are immutable once
// created and identified by their source document and sequence position.
type DocumentChunk struct {
	Seq    int    // Zero-based position within the source document
	Text   string // The chunk contents
	Source string // Path or name of the source document
}

// SourceInfo describes where a stored record came from.
type SourceInfo struct {
	Document string `bson:"document"`        // Source document path or name
	Chunk    int    `bson:"chunk"`           // Chunk sequence within the document
	Batch    string `bson:"batch,omitempty"` // Ingestion batch UUID
}

// StoredRecord is the persisted unit in the vector store:
// chunk text, its embedding vector, and source metadata.
// Records are created during ingestion, read during retrieval,
// and never mutated.
type StoredRecord struct {
	Id         ID
	Text       string
	Vector     []float32
	Source     SourceInfo
	InsertedAt time.Time
}

// SearchResult is a retrieval match with its relevance score.
// Scores are assigned by the vector store; higher is more similar.
type SearchResult struct {
	Record *StoredRecord
	Score  float32
}

// ConversationTurn is one message in a user's conversation with the
// assistant. Turns are appended in order and replayed to reconstruct
// agent memory.
type ConversationTurn struct {
	Speaker   SpeakerType `bson:"speaker"`
	Text      string      `bson:"text"`
	Timestamp time.Time   `bson:"timestamp"`
}

// RecordID generates the content-derived ID for a chunk ingested in a batch.
// Distinct batches produce distinct IDs for the same chunk, so re-running
// ingestion on the same document appends new records instead of overwriting
// the old ones.
func RecordID(chunk *DocumentChunk, batch string) ID {
	return IDFromContent(fmt.Sprintf("%s:%d:%s:%s", chunk.Source, chunk.Seq, batch, chunk.Text))
}

// UniqueRecordID generates an ID for text added outside an ingestion batch.
// A fresh nonce is mixed into the hash, so adding the same text twice yields
// two distinct records.
func UniqueRecordID(text string) ID {
	return IDFromContent(uuid.NewString() + ":" + text)
}

package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlabs/dossier/core"
)

func TestConfig_Normalize(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, "dossier", cfg.Database)
	assert.Equal(t, "chat-rag", cfg.Collection)
	assert.Equal(t, "vector_index", cfg.Index)
	assert.Equal(t, "embedding", cfg.Path)
}

func TestConfig_Normalize_PreservesValues(t *testing.T) {
	cfg := &Config{
		URI:        "mongodb://atlas.example.com:27017",
		Database:   "profiles",
		Collection: "chunks",
	}
	cfg.Normalize()

	assert.Equal(t, "mongodb://atlas.example.com:27017", cfg.URI)
	assert.Equal(t, "profiles", cfg.Database)
	assert.Equal(t, "chunks", cfg.Collection)
	assert.Equal(t, "vector_index", cfg.Index)
}

func TestNewRecordDocument(t *testing.T) {
	now := time.Now().UTC()
	record := &core.StoredRecord{
		Id:     core.IDFromContent("chunk"),
		Text:   "chunk",
		Vector: []float32{0.1, 0.2},
	}

	doc, err := newRecordDocument(record, now)
	require.NoError(t, err)

	assert.Equal(t, formatID(record.Id), doc.ID)
	assert.Equal(t, "chunk", doc.Text)
	assert.Equal(t, now, doc.InsertedAt)
	assert.Equal(t, now, record.InsertedAt)
}

func TestNewRecordDocument_SameTextDistinctIDs(t *testing.T) {
	now := time.Now().UTC()
	first := &core.StoredRecord{Text: "identical text", Vector: []float32{0.5}}
	second := &core.StoredRecord{Text: "identical text", Vector: []float32{0.5}}

	firstDoc, err := newRecordDocument(first, now)
	require.NoError(t, err)
	secondDoc, err := newRecordDocument(second, now)
	require.NoError(t, err)

	// _id is a unique index: the same text submitted twice must never map
	// to the same document key.
	assert.NotEqual(t, firstDoc.ID, secondDoc.ID)
	assert.NotZero(t, first.Id)
	assert.NotZero(t, second.Id)
}

func TestFormatParseID(t *testing.T) {
	ids := []core.ID{0, 1, 42, core.IDFromContent("some chunk")}

	for _, id := range ids {
		formatted := formatID(id)
		assert.Len(t, formatted, 16)

		parsed, err := parseID(formatted)
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseID_Malformed(t *testing.T) {
	_, err := parseID("not-hex")
	assert.Error(t, err)
}

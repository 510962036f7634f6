package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantlabs/dossier/ai/mock"
	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
	"github.com/verdantlabs/dossier/storage/memory"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *mock.MockEmbedder, storage.VectorRepository) {
	t.Helper()

	store := memory.NewVectorStore()
	embedder := mock.NewMockEmbedder()

	s, err := NewServer(store, embedder, opts...)
	require.NoError(t, err)
	return s, embedder, store
}

func seedRecords(t *testing.T, store storage.VectorRepository, texts ...string) {
	t.Helper()

	records := make([]*core.StoredRecord, len(texts))
	for i, text := range texts {
		records[i] = &core.StoredRecord{
			Text:   text,
			Vector: mock.DeterministicVector(text, 384),
			Source: core.SourceInfo{Document: "seed.txt", Chunk: i},
		}
	}
	_, err := store.AddRecords(context.Background(), records...)
	require.NoError(t, err)
}

func doJSON(handler http.Handler, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body) //nolint:errcheck
	}
	req := httptest.NewRequest(method, target, &buf)
	for key, values := range header {
		req.Header[key] = values
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewServer(memory.NewVectorStore(), nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewServer(memory.NewVectorStore(), mock.NewMockEmbedder(), WithSearchLimit(0))
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestQueryReturnsNearestFirst(t *testing.T) {
	s, _, store := newTestServer(t)
	seedRecords(t, store,
		"the capital of France is Paris",
		"golang concurrency patterns",
		"my favorite food is ramen",
	)

	rec := doJSON(s.Handler(), http.MethodPost, "/query",
		QueryRequest{Query: "golang concurrency patterns"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Results)

	// The record with an identical embedding must rank first.
	assert.Equal(t, "golang concurrency patterns", resp.Results[0].Text)
	assert.Equal(t, "seed.txt", resp.Results[0].Source)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestQueryHonorsSearchLimit(t *testing.T) {
	s, _, store := newTestServer(t, WithSearchLimit(2))
	seedRecords(t, store, "one", "two", "three", "four")

	rec := doJSON(s.Handler(), http.MethodPost, "/query", QueryRequest{Query: "one"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Results, 2)
}

func TestQueryEmptyQuery(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(s.Handler(), http.MethodPost, "/query", QueryRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryInvalidPayload(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEmbedderErrorPropagates(t *testing.T) {
	s, embedder, store := newTestServer(t)
	seedRecords(t, store, "something")

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider unreachable")
	}

	rec := doJSON(s.Handler(), http.MethodPost, "/query", QueryRequest{Query: "anything"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQueryStoreErrorPropagates(t *testing.T) {
	store := memory.NewVectorStore()
	require.NoError(t, store.Close())

	s, err := NewServer(store, mock.NewMockEmbedder())
	require.NoError(t, err)

	rec := doJSON(s.Handler(), http.MethodPost, "/query", QueryRequest{Query: "anything"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAddDocument(t *testing.T) {
	s, _, store := newTestServer(t)

	rec := doJSON(s.Handler(), http.MethodPost, "/documents",
		AddDocumentRequest{Text: "a new fact", Source: "manual"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	count, err := store.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAddDocumentTwiceStoresBoth(t *testing.T) {
	s, _, store := newTestServer(t)
	handler := s.Handler()
	body := AddDocumentRequest{Text: "the same fact", Source: "manual"}

	rec := doJSON(handler, http.MethodPost, "/documents", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Posting identical text again appends a second record, it never
	// collides with the first one.
	rec = doJSON(handler, http.MethodPost, "/documents", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	count, err := store.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAddDocumentEmptyText(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(s.Handler(), http.MethodPost, "/documents", AddDocumentRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCountAndClear(t *testing.T) {
	s, _, store := newTestServer(t)
	seedRecords(t, store, "a", "b", "c")
	handler := s.Handler()

	rec := doJSON(handler, http.MethodGet, "/documents/count", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counted map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counted))
	assert.Equal(t, int64(3), counted["count"])

	rec = doJSON(handler, http.MethodDelete, "/documents", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	count, err := store.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t, WithAuthToken("secret"))

	// Health stays open even with auth enabled.
	rec := doJSON(s.Handler(), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	s, _, store := newTestServer(t, WithAuthToken("secret"))
	seedRecords(t, store, "guarded")
	handler := s.Handler()

	rec := doJSON(handler, http.MethodPost, "/query", QueryRequest{Query: "guarded"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(handler, http.MethodPost, "/query", QueryRequest{Query: "guarded"},
		http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(handler, http.MethodPost, "/query", QueryRequest{Query: "guarded"},
		http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

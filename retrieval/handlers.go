package retrieval

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/verdantlabs/dossier/core"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query"`
}

// Match is one retrieved record, nearest first.
type Match struct {
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
	Source string  `json:"source"`
}

// QueryResponse is the body returned by POST /query.
type QueryResponse struct {
	Results []Match `json:"results"`
}

// AddDocumentRequest is the body of POST /documents.
type AddDocumentRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	vector, err := s.embedder.EmbedText(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("embedding query failed", "err", err)
		http.Error(w, "Could not embed query", http.StatusInternalServerError)
		return
	}

	results, err := s.store.Search(r.Context(), vector, s.searchLimit)
	if err != nil {
		s.logger.Error("vector search failed", "err", err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	matches := make([]Match, len(results))
	for i, result := range results {
		matches[i] = Match{
			Text:   result.Record.Text,
			Score:  result.Score,
			Source: result.Record.Source.Document,
		}
	}
	writeJSON(w, http.StatusOK, QueryResponse{Results: matches})
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "Text cannot be empty", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	vector, err := s.embedder.EmbedText(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("embedding document failed", "err", err)
		http.Error(w, "Could not embed document", http.StatusInternalServerError)
		return
	}

	record := &core.StoredRecord{
		Text:       req.Text,
		Vector:     vector,
		Source:     core.SourceInfo{Document: req.Source},
		InsertedAt: time.Now().UTC(),
	}
	added, err := s.store.AddRecords(r.Context(), record)
	if err != nil {
		s.logger.Error("storing document failed", "err", err)
		http.Error(w, "Failed to store document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"inserted": len(added)})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountRecords(r.Context())
	if err != nil {
		s.logger.Error("counting records failed", "err", err)
		http.Error(w, "Failed to count documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.logger.Error("clearing records failed", "err", err)
		http.Error(w, "Failed to clear documents", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

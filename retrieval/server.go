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

package retrieval

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/verdantlabs/dossier/ai"
	"github.com/verdantlabs/dossier/storage"
)

// DefaultSearchLimit is the fixed top-K returned by the query route.
const DefaultSearchLimit = 5

// Server exposes semantic search over a vector repository. The repository
// connection and the embedder are created once at startup and shared
// read-only across requests.
type Server struct {
	store       storage.VectorRepository
	embedder    ai.Embedder
	searchLimit int
	authToken   string
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithSearchLimit overrides the default top-K for query responses.
func WithSearchLimit(limit int) Option {
	return func(s *Server) error {
		if limit < 1 {
			return ErrInvalidLimit
		}
		s.searchLimit = limit
		return nil
	}
}

// WithAuthToken enables bearer-token auth on every route except health.
// An empty token leaves the server open.
func WithAuthToken(token string) Option {
	return func(s *Server) error {
		s.authToken = token
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates a retrieval server over the given repository and embedder.
func NewServer(store storage.VectorRepository, embedder ai.Embedder, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Server{
		store:       store,
		embedder:    embedder,
		searchLimit: DefaultSearchLimit,
		logger:      slog.Default().With("component", "retrieval"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Handler returns the routing table for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /query", s.authorized(http.HandlerFunc(s.handleQuery)))
	mux.Handle("POST /documents", s.authorized(http.HandlerFunc(s.handleAddDocument)))
	mux.Handle("GET /documents/count", s.authorized(http.HandlerFunc(s.handleCount)))
	mux.Handle("DELETE /documents", s.authorized(http.HandlerFunc(s.handleClear)))
	return mux
}

// authorized enforces bearer-token auth when a token is configured.
func (s *Server) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/verdantlabs/dossier/ai"
	"github.com/verdantlabs/dossier/ai/openai"
	"github.com/verdantlabs/dossier/retrieval"
	"github.com/verdantlabs/dossier/storage/mongo"
)

func main() {
	app := &cli.App{
		Name:  "retrieval",
		Usage: "Semantic search service over embedded profile documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Address to listen on",
				Value:   "127.0.0.1",
				EnvVars: []string{"APP_HOST"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   8080,
				EnvVars: []string{"APP_PORT"},
			},
			&cli.StringFlag{
				Name:    "atlas-uri",
				Usage:   "MongoDB connection string",
				Value:   "mongodb://localhost:27017",
				EnvVars: []string{"ATLAS_URI"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "MongoDB database name",
				Value:   "dossier",
				EnvVars: []string{"MONGODB_DB"},
			},
			&cli.StringFlag{
				Name:    "collection",
				Usage:   "MongoDB collection holding embedded chunks",
				Value:   "chat-rag",
				EnvVars: []string{"MONGODB_COLLECTION"},
			},
			&cli.StringFlag{
				Name:    "vector-index",
				Usage:   "Atlas Vector Search index name",
				Value:   "vector_index",
				EnvVars: []string{"VECTOR_INDEX"},
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required on non-health routes (empty disables auth)",
				EnvVars: []string{"AUTH_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:     "embedding-model",
				Usage:    "Embedding model name",
				Required: true,
				EnvVars:  []string{"EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the embedding provider",
				EnvVars: []string{"LLM_API_KEY"},
			},
			&cli.IntFlag{
				Name:  "search-limit",
				Usage: "Number of records returned per query",
				Value: retrieval.DefaultSearchLimit,
			},
		},
		Before: setupLogger,
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongo.NewVectorStore(ctx, &mongo.Config{
		URI:        c.String("atlas-uri"),
		Database:   c.String("db"),
		Collection: c.String("collection"),
		Index:      c.String("vector-index"),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer store.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	server, err := retrieval.NewServer(store, embedder,
		retrieval.WithAuthToken(c.String("auth-token")),
		retrieval.WithSearchLimit(c.Int("search-limit")),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := net.JoinHostPort(c.String("host"), fmt.Sprint(c.Int("port")))
	return serve(ctx, addr, server.Handler())
}

// serve runs the HTTP server until the context is cancelled, then drains
// in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

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
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/verdantlabs/dossier/ai"
	"github.com/verdantlabs/dossier/ai/openai"
	"github.com/verdantlabs/dossier/ingestion"
	"github.com/verdantlabs/dossier/storage/mongo"
)

func main() {
	app := &cli.App{
		Name:      "ingest",
		Usage:     "Embed profile documents into the vector store",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
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
				Name:  "chunk-size",
				Usage: "Chunk length in characters",
				Value: ingestion.DefaultChunkSize,
			},
			&cli.IntFlag{
				Name:  "chunk-overlap",
				Usage: "Characters shared between consecutive chunks",
				Value: ingestion.DefaultChunkOverlap,
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Worker pool size for concurrent embedding (0 uses half the CPUs)",
			},
			&cli.StringFlag{
				Name:    "file",
				Usage:   "Document to ingest (alternative to positional arguments)",
				EnvVars: []string{"DOCUMENT_PATH"},
			},
		},
		Before: setupLogger,
		Action: ingestCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		if file := c.String("file"); file != "" {
			paths = []string{file}
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("at least one document path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongo.NewVectorStore(ctx, &mongo.Config{
		URI:        c.String("atlas-uri"),
		Database:   c.String("db"),
		Collection: c.String("collection"),
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

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	splitter, err := ingestion.NewSlidingWindowSplitter(c.Int("chunk-size"), c.Int("chunk-overlap"))
	if err != nil {
		return err
	}

	opts := []ingestion.Option{ingestion.WithSplitter(splitter)}
	if c.Int("pool-size") > 0 {
		opts = append(opts, ingestion.WithPoolSize(c.Int("pool-size")))
	}

	pipeline, err := ingestion.NewPipeline(store, provider.Embedder(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	for _, path := range paths {
		report, err := pipeline.Ingest(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "%s: %d chunks (batch %s)\n", report.Document, report.Chunks, report.Batch)
	}

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

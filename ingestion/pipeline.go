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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/verdantlabs/dossier/ai"
	"github.com/verdantlabs/dossier/core"
	"github.com/verdantlabs/dossier/storage"
)

// Pipeline turns source documents into embedded records in a vector
// repository. Chunks are embedded concurrently; records only reach the
// store once every chunk in the run has an embedding.
// DefaultEmbedBatchSize is the number of chunks sent to the embedding
// service in one request.
const DefaultEmbedBatchSize = 16

type Pipeline struct {
	store     storage.VectorRepository
	embedder  ai.Embedder
	splitter  textsplitter.TextSplitter
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithSplitter replaces the default sliding-window splitter.
func WithSplitter(splitter textsplitter.TextSplitter) Option {
	return func(p *Pipeline) error {
		if splitter == nil {
			return ErrInvalidChunking
		}
		p.splitter = splitter
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithEmbedBatchSize sets how many chunks each embedding request carries.
// Default is DefaultEmbedBatchSize, with a minimum of 1.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store storage.VectorRepository, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	splitter, err := NewSlidingWindowSplitter(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		embedder:  embedder,
		splitter:  splitter,
		pool:      pool,
		batchSize: DefaultEmbedBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Report summarizes a completed ingestion run.
type Report struct {
	Document string
	Batch    string
	Chunks   int
}

// Ingest loads a document from disk, splits it, embeds every chunk, and
// appends the resulting records to the vector repository.
func (p *Pipeline) Ingest(ctx context.Context, path string) (*Report, error) {
	text, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return p.IngestText(ctx, path, text)
}

// IngestText ingests already-loaded text attributed to the given source.
// Each run is stamped with a fresh batch identifier, so ingesting the same
// document twice appends a second copy of every record rather than
// overwriting the first.
func (p *Pipeline) IngestText(ctx context.Context, source, text string) (*Report, error) {
	pieces, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, ErrEmptyDocument
	}

	chunks := make([]*core.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &core.DocumentChunk{Seq: i, Text: piece, Source: source}
		if err := core.ValidateChunk(chunks[i]); err != nil {
			return nil, err
		}
	}

	batch := uuid.NewString()
	p.logger.Info("ingesting document", "source", source, "batch", batch, "chunks", len(chunks))

	vectors, err := p.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*core.StoredRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &core.StoredRecord{
			Id:     core.RecordID(chunk, batch),
			Text:   chunk.Text,
			Vector: vectors[i],
			Source: core.SourceInfo{
				Document: chunk.Source,
				Chunk:    chunk.Seq,
				Batch:    batch,
			},
			InsertedAt: now,
		}
	}

	added, err := p.store.AddRecords(ctx, records...)
	if err != nil {
		return nil, err
	}

	return &Report{Document: source, Batch: batch, Chunks: len(added)}, nil
}

// embedAll embeds every chunk through the worker pool, one EmbedTexts
// request per batch. The first failure cancels the remaining work and
// fails the whole run; nothing is retried.
func (p *Pipeline) embedAll(ctx context.Context, chunks []*core.DocumentChunk) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(chunks))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		batch := chunks[start:min(start+p.batchSize, len(chunks))]
		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}
		offset := start

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			embedded, err := p.embedder.EmbedTexts(ctx, texts)
			if err != nil {
				p.logger.Error("embedding batch failed",
					"source", batch[0].Source, "from", batch[0].Seq, "size", len(texts), "err", err)
				fail(err)
				return
			}
			if len(embedded) != len(texts) {
				fail(fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(texts)))
				return
			}
			copy(vectors[offset:], embedded)
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

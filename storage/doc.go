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


// Package storage provides the storage abstraction layer for dossier.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, allowing different backends to be used
// interchangeably.
//
// # Architecture
//
// Two repositories cover the system's persisted state:
//
//   - VectorRepository: embedded document chunks, served by MongoDB Atlas
//     Vector Search in production (storage/mongo) and by an exact in-memory
//     index in tests and local development (storage/memory)
//   - HistoryRepository: per-user conversation transcripts, served by
//     BadgerDB (storage/badger)
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable multiple storage backend implementations:
//
//	store, err := mongo.NewVectorStore(ctx, cfg)  // returns storage.VectorRepository
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Vector store usage is
// read-heavy: queries run concurrently while ingestion appends offline as a
// single writer.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage

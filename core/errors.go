// Copyright 2025 Poiesic Systems
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


package core

import "errors"

// Pipeline error taxonomy. Sentinels are wrapped with context by callers and
// matched with errors.Is.
var (
	// ErrInvalidConfig indicates malformed chunking or search parameters.
	// Rejected before any I/O, surfaced to the caller, never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingUnavailable indicates an embedding backend failure or
	// timeout. Retried with bounded attempts during ingestion; not retried
	// on the interactive query path.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrVectorStore indicates an index read or write failure.
	ErrVectorStore = errors.New("vector store failure")

	// ErrGenerationUnavailable indicates a generation backend failure or
	// timeout at any point of the response stream.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrNotFound indicates the referenced document or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyContent indicates a chunk or record has no text.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDimensionMismatch indicates an embedding whose dimensionality does
	// not match the dimension pinned for the deployment.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

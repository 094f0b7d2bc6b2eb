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


package groundit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/groundit/ai"
	"github.com/poiesic/groundit/ai/openai"
	"github.com/poiesic/groundit/core"
	"github.com/poiesic/groundit/ingestion"
	"github.com/poiesic/groundit/retrieval"
	"github.com/poiesic/groundit/session"
	"github.com/poiesic/groundit/storage"
	"github.com/poiesic/groundit/storage/badger"
	"github.com/poiesic/groundit/studyaids"
)

// Engine is the top-level facade: a vector index, session store, ingestion
// pipeline, retrieval coordinator, and study aid builder wired together
// over one storage backend.
type Engine struct {
	backend     *badger.Backend
	repo        storage.VectorRepository
	sessions    *session.Store
	provider    ai.Provider
	pipeline    *ingestion.Pipeline
	coordinator *retrieval.Coordinator
	builder     *studyaids.Builder
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.Provider
	inMemory      bool
	sessionOpts   []session.Option
	ingestionOpts []ingestion.Option
	retrievalOpts []retrieval.Option
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible
// provider. Ignored when WithProvider is also given.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing
// one from configuration. The engine takes ownership and closes it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the index in memory instead of on disk. The file
// path passed to New is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithSessionOptions forwards options to the session store.
func WithSessionOptions(opts ...session.Option) EngineOption {
	return func(o *engineOptions) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// WithIngestionOptions forwards options to the ingestion pipeline.
func WithIngestionOptions(opts ...ingestion.Option) EngineOption {
	return func(o *engineOptions) {
		o.ingestionOpts = append(o.ingestionOpts, opts...)
	}
}

// WithRetrievalOptions forwards options to the retrieval coordinator.
func WithRetrievalOptions(opts ...retrieval.Option) EngineOption {
	return func(o *engineOptions) {
		o.retrievalOpts = append(o.retrievalOpts, opts...)
	}
}

// New opens or creates an engine rooted at filePath.
func New(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	sessions, err := session.NewStore(options.sessionOpts...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(repo, provider, options.ingestionOpts...)
	if err != nil {
		provider.Close()
		repo.Close()
		backend.Close()
		return nil, err
	}

	coordinator, err := retrieval.NewCoordinator(repo, sessions, provider, options.retrievalOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		repo.Close()
		backend.Close()
		return nil, err
	}

	builder, err := studyaids.NewBuilder(repo, provider)
	if err != nil {
		pipeline.Release()
		provider.Close()
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:     backend,
		repo:        repo,
		sessions:    sessions,
		provider:    provider,
		pipeline:    pipeline,
		coordinator: coordinator,
		builder:     builder,
		logger:      slog.Default(),
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.pipeline.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.repo.Close(); err != nil {
		e.logger.Error("error closing vector repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Ingest chunks and indexes a document, embedding in the background.
// Returns the number of chunks created.
func (e *Engine) Ingest(ctx context.Context, documentID, owner, text string) (int, error) {
	return e.pipeline.Ingest(ctx, documentID, owner, text)
}

// IngestSync is Ingest with embedding completed before it returns.
func (e *Engine) IngestSync(ctx context.Context, documentID, owner, text string) (int, error) {
	return e.pipeline.IngestSync(ctx, documentID, owner, text)
}

// Query streams a grounded answer for the request.
func (e *Engine) Query(ctx context.Context, req retrieval.Request) (<-chan retrieval.Fragment, error) {
	return e.coordinator.Query(ctx, req)
}

// DeleteDocument purges a document's chunks from the index. Returns
// core.ErrNotFound when the document has no indexed chunks.
func (e *Engine) DeleteDocument(ctx context.Context, documentID string) error {
	removed, err := e.repo.DeleteDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: document %q", core.ErrNotFound, documentID)
	}
	e.logger.Info("document deleted", "document_id", documentID, "chunks", removed)
	return nil
}

// Unembedded lists chunks whose embedding failed. An empty documentID
// lists markers across all documents.
func (e *Engine) Unembedded(ctx context.Context, documentID string) ([]*core.UnembeddedMarker, error) {
	return e.repo.Unembedded(ctx, documentID)
}

// Reembed retries embedding for marked chunks. Returns the number
// recovered.
func (e *Engine) Reembed(ctx context.Context, documentID string) (int, error) {
	return e.pipeline.Reembed(ctx, documentID)
}

// Quiz generates multiple-choice questions from an indexed document.
func (e *Engine) Quiz(ctx context.Context, documentID string, count int) ([]studyaids.QuizQuestion, error) {
	return e.builder.Quiz(ctx, documentID, count)
}

// Flashcards generates study cards from an indexed document.
func (e *Engine) Flashcards(ctx context.Context, documentID string, count int) ([]studyaids.Flashcard, error) {
	return e.builder.Flashcards(ctx, documentID, count)
}

// Sessions exposes the session store.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// VectorRepository exposes the underlying index.
func (e *Engine) VectorRepository() storage.VectorRepository {
	return e.repo
}

// EvictSession drops one session. Returns true if it existed.
func (e *Engine) EvictSession(key string) bool {
	return e.sessions.Evict(key)
}

// EvictExpiredSessions drops sessions idle longer than ttl.
func (e *Engine) EvictExpiredSessions(ttl time.Duration) int {
	return e.sessions.EvictExpired(time.Now().UTC(), ttl)
}

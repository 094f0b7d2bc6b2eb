// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewProvider()
//	vector, err := provider.Embedder().EmbedQuery(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewEmbedder()
//	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Scripted stream with a mid-stream failure
//	generator := mock.NewGenerator("partial ", "answer")
//	generator.FailAfter = 1
//	generator.FailErr = core.ErrGenerationUnavailable
//
// # Default Behavior
//
//   - Embedder: Returns deterministic vectors based on text hash
//   - Generator: Streams its configured fragments and returns their concatenation
//   - Provider: Aggregates mock embedder and generator
package mock

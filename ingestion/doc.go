// Package ingestion provides pipeline orchestration for indexing documents.
//
// The Pipeline type manages the ingestion workflow for raw document text,
// including:
//   - Splitting text into overlapping chunks
//   - Upserting chunk records into the vector repository
//   - Generating embeddings, synchronously or on a worker pool
//   - Marking chunks whose embedding failed for later retry
//
// Embedding failures are isolated per chunk: a failed chunk is recorded as
// an unembedded marker and never aborts the rest of the document. Background
// work always carries its own explicit context rather than borrowing the
// caller's.
package ingestion

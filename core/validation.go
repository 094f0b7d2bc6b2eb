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

import (
	"fmt"
	"math"
	"strings"
)

// ValidateChunkParams validates chunking parameters.
//
// Rules:
//   - maxChars must be positive
//   - overlap must be non-negative and strictly smaller than maxChars
func ValidateChunkParams(maxChars, overlap int) error {
	if maxChars <= 0 {
		return fmt.Errorf("%w: maxChars must be positive, got %d", ErrInvalidConfig, maxChars)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidConfig, overlap)
	}
	if overlap >= maxChars {
		return fmt.Errorf("%w: overlap %d must be smaller than maxChars %d", ErrInvalidConfig, overlap, maxChars)
	}
	return nil
}

// ValidateSearchParams validates similarity search parameters.
//
// Rules:
//   - topK must be positive
//   - minScore must lie in [0,1]
func ValidateSearchParams(topK int, minScore float32) error {
	if topK <= 0 {
		return fmt.Errorf("%w: topK must be positive, got %d", ErrInvalidConfig, topK)
	}
	if minScore < 0 || minScore > 1 || math.IsNaN(float64(minScore)) {
		return fmt.Errorf("%w: minScore must be in [0,1], got %v", ErrInvalidConfig, minScore)
	}
	return nil
}

// ValidateDocumentID validates a document identifier.
//
// Rules:
//   - must not be empty
//   - must not contain NUL bytes (NUL separates storage key segments)
func ValidateDocumentID(documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidConfig)
	}
	if strings.ContainsRune(documentID, 0) {
		return fmt.Errorf("%w: document id must not contain NUL bytes", ErrInvalidConfig)
	}
	return nil
}

// ValidateOwner validates an owner identifier. Empty is allowed (guest
// scope); NUL bytes are not, they separate storage key segments.
func ValidateOwner(owner string) error {
	if strings.ContainsRune(owner, 0) {
		return fmt.Errorf("%w: owner must not contain NUL bytes", ErrInvalidConfig)
	}
	return nil
}

// ValidateChunkRecord validates a ChunkRecord before it is indexed.
//
// Rules:
//   - DocumentID must not be empty or contain NUL bytes
//   - Owner must not contain NUL bytes
//   - Text must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (can be empty until the embedding processor runs)
func ValidateChunkRecord(record *ChunkRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidConfig)
	}
	if err := ValidateDocumentID(record.DocumentID); err != nil {
		return err
	}
	if err := ValidateOwner(record.Owner); err != nil {
		return err
	}
	if record.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrEmptyContent)
	}
	return nil
}

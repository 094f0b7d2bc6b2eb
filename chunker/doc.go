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


// Package chunker splits document text into ordered, overlapping chunks for
// indexing.
//
// Splitting prefers whitespace boundaries so words are not broken, falls back
// to a hard cut when a window contains none, and never discards content: the
// concatenation of all chunks at their non-overlapping offsets reproduces the
// source text. Splitting is deterministic, the same input and parameters
// always yield identical chunk boundaries.
package chunker

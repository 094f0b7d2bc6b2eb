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


// Package retrieval orchestrates grounded question answering.
//
// The Coordinator drives each request through a fixed sequence: embed the
// query, search the vector repository, assemble the grounding context,
// then stream the generated answer back to the caller as it is produced.
// It holds no persistent state of its own; the vector repository and the
// session store own theirs.
//
// Failure handling is asymmetric on purpose. A search failure degrades to
// an empty grounding context and the conversation continues; an embedding
// or generation failure terminates the request with a single error
// fragment. A partially streamed answer is never recorded in session
// history, so a failed or cancelled stream leaves the conversation state
// exactly as it was.
package retrieval

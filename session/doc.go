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


// Package session holds in-memory conversation state for groundit.
//
// A Store maps session keys to conversations. Sessions are created lazily
// on first access, live only in process memory, and are removed solely by
// explicit eviction (per-key or TTL sweep) or by the store's capacity
// bound. Mutations to one session are serialized; different sessions never
// block each other.
//
// Session keys come from the authenticated user identity. Unauthenticated
// access shares GuestSessionKey unless the caller derives a per-connection
// key with ConnectionSessionKey.
package session

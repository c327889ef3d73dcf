// Package memory implements the assistant's long-term conversational memory.
//
// Interactions are persisted as embedding vectors and retrieved by semantic
// similarity when a new prompt arrives. The package is built around three
// pieces:
//   - Store: vector storage backend (chromem-go locally, swappable for a
//     server-backed store in production)
//   - Embedder: text-to-vector conversion (OpenAI-compatible API, or a
//     deterministic offline embedder for tests)
//   - Ledger: orchestrates embedding, recording, search, and the one-time
//     schema migration at startup
//
// A separate Buffer holds the short-term, bounded conversation history that
// forms the literal prompt. The buffer is independent of the vector ledger:
// the ledger answers "what have we ever talked about that resembles this",
// the buffer answers "what did we just say".
//
// The package assumes a single logical session owns a collection at a time.
// The Store implementation is responsible for serializing concurrent access
// internally; the Ledger issues one embedding call at a time and does not
// batch or pipeline.
package memory

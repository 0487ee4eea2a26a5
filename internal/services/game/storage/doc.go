// Package storage persists the operator snapshot and profile documents.
//
// Engine code talks to a Bridge, which encodes documents as JSON and stores
// them under fixed keys in a KV backend. Backends (memory, bbolt, SQLite)
// live in subpackages and only move opaque bytes.
//
// Common error types:
//   - ErrNotFound: nothing has been written under the key yet
//   - ErrCorrupt: the stored bytes could not be decoded
package storage

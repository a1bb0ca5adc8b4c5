// Package store provides persistence adapters for conversation state.
//
// An [Adapter] is a key-value store of JSON documents. [MemoryAdapter] keeps
// everything in process; [SQLiteAdapter] persists to a SQLite file so that
// suspended conversations survive a restart. [LoadJSON] and [SaveJSON] layer
// typed access on top of any adapter.
package store

import (
	"context"
	"encoding/json"
)

// Adapter defines the interface for persistence backends.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get retrieves a value by key. Returns nil, false, nil if not found.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)

	// Set stores a value by key, replacing any previous value.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a key. No error if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources held by the adapter.
	Close() error
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// LoadJSON reads the document at key into a T. It returns an error
// wrapping ErrKeyNotFound when the key is absent.
func LoadJSON[T any](ctx context.Context, a Adapter, key string) (T, error) {
	var v T
	raw, ok, err := a.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &SerializationError{Key: key, Err: err}
	}
	return v, nil
}

// SaveJSON writes v as JSON under key.
func SaveJSON[T any](ctx context.Context, a Adapter, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return a.Set(ctx, key, raw)
}

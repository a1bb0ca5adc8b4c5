package tool

import "context"

// Handler executes a tool with arguments that have already been validated
// against the tool's schema.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// TypedHandler executes a tool with arguments decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)

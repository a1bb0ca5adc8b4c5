package tool

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrNotFound          = errors.New("tool: not found")
	ErrInvalidArguments  = errors.New("tool: invalid arguments")
	ErrExecution         = errors.New("tool: execution failed")
	ErrAlreadyRegistered = errors.New("tool: already registered")
)

// NotFoundError is returned when a call references an unregistered tool.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ArgumentError is returned when a call's arguments do not satisfy the
// tool's parameter schema.
type ArgumentError struct {
	Name string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool: %s: invalid arguments: %v", e.Name, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArguments }

// ExecutionError wraps a failure raised by the tool's callable.
type ExecutionError struct {
	Name string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool: %s execution failed: %v", e.Name, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// AlreadyRegisteredError is returned when registering a duplicate name.
type AlreadyRegisteredError struct {
	Name string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

func (e *AlreadyRegisteredError) Is(target error) bool { return target == ErrAlreadyRegistered }

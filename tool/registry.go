package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ai "github.com/spetersoncode/gatekeep"
)

// Registry maps tool names to their descriptors.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Descriptor
	order   []string
	timeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTimeout bounds every invocation with the given deadline.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

// NewRegistry creates an empty tool registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools: make(map[string]Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a descriptor to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(d Descriptor) error {
	if d.Handler == nil {
		return fmt.Errorf("tool: %s: descriptor has no handler", d.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[d.Name()]; exists {
		return &AlreadyRegisteredError{Name: d.Name()}
	}
	r.tools[d.Name()] = d
	r.order = append(r.order, d.Name())
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Add registers one or more descriptors and returns the registry for
// chaining. Panics if any tool is already registered.
func (r *Registry) Add(descs ...Descriptor) *Registry {
	for _, d := range descs {
		r.MustRegister(d)
	}
	return r
}

// Get looks up a descriptor by tool name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.tools[name]
	return d, ok
}

// Tools returns all tool definitions in registration order.
func (r *Registry) Tools() []ai.Tool {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].Tool)
	}
	return tools
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Invoke validates args against the named tool's schema and runs it.
// The returned error is a *NotFoundError, *ArgumentError or *ExecutionError.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (result string, err error) {
	d, ok := r.Get(name)
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := d.Validate(args); err != nil {
		return "", &ArgumentError{Name: name, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = "", &ExecutionError{Name: name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	out, err := d.Handler(ctx, args)
	if err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			return "", err
		}
		return "", &ExecutionError{Name: name, Err: err}
	}
	return out, nil
}

// Execute runs a tool call and reports the outcome as a ToolResult.
// Every failure, including an unknown tool or malformed arguments, becomes
// an error result so the model can see it and recover.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) ai.ToolResult {
	result := ai.ToolResult{ToolCallID: call.ID, Name: call.Name}

	args, err := call.Args()
	if err != nil {
		err = &ArgumentError{Name: call.Name, Err: err}
	} else {
		result.Content, err = r.Invoke(ctx, call.Name, args)
	}
	if err != nil {
		result.Content = err.Error()
		result.IsError = true
	}
	return result
}

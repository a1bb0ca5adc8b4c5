package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	ai "github.com/spetersoncode/gatekeep"
)

// Descriptor is the explicit description of a callable tool: what the model
// sees (name, description, parameter schema) and the function behind it.
type Descriptor struct {
	Tool    ai.Tool
	Handler Handler

	schema *jsonschema.Resolved
}

// Name returns the tool name.
func (d Descriptor) Name() string { return d.Tool.Name }

// Validate checks args against the descriptor's parameter schema.
func (d Descriptor) Validate(args map[string]any) error {
	if d.schema == nil {
		return nil
	}
	return d.schema.Validate(args)
}

// Func creates a Descriptor whose parameter schema is derived from T.
// Panics if T cannot be described as a JSON object schema.
//
// Example:
//
//	tool.Func("get_stock_price", "Look up a stock price",
//	    func(ctx context.Context, args StockArgs) (string, error) {
//	        return quote(args.Symbol), nil
//	    })
func Func[T any](name, description string, fn TypedHandler[T]) Descriptor {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("tool: schema for %s: %v", name, err))
	}
	d, err := NewDescriptor(name, description, schema, func(ctx context.Context, args map[string]any) (string, error) {
		var typed T
		raw, err := json.Marshal(args)
		if err != nil {
			return "", &ArgumentError{Name: name, Err: err}
		}
		if err := json.Unmarshal(raw, &typed); err != nil {
			return "", &ArgumentError{Name: name, Err: err}
		}
		return fn(ctx, typed)
	})
	if err != nil {
		panic(err)
	}
	return d
}

// NewDescriptor creates a Descriptor from an explicit schema and handler.
// A nil schema accepts any object.
func NewDescriptor(name, description string, schema *jsonschema.Schema, h Handler) (Descriptor, error) {
	if name == "" {
		return Descriptor{}, fmt.Errorf("tool: descriptor requires a name")
	}
	if h == nil {
		return Descriptor{}, fmt.Errorf("tool: %s: descriptor requires a handler", name)
	}
	if schema == nil {
		schema = &jsonschema.Schema{Type: "object"}
	}
	if schema.Type == "object" && schema.Properties == nil {
		schema.Properties = map[string]*jsonschema.Schema{}
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return Descriptor{}, fmt.Errorf("tool: %s: resolve schema: %w", name, err)
	}
	params, err := json.Marshal(schema)
	if err != nil {
		return Descriptor{}, fmt.Errorf("tool: %s: marshal schema: %w", name, err)
	}

	return Descriptor{
		Tool: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		Handler: h,
		schema:  resolved,
	}, nil
}

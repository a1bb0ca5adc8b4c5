// Package tool provides the tool registry and the built-in tools an agent can
// call.
//
// A tool is described by a [Descriptor]: its name, a description for the
// model, a parameter schema and the callable that does the work. Descriptors
// are built explicitly, usually with [Func], which derives the parameter
// schema from a Go struct:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"City name"`
//	    Unit     string `json:"unit,omitempty" jsonschema:"celsius or fahrenheit"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return lookup(args.Location), nil
//	        }),
//	)
//
// Fields without omitempty are required. The jsonschema tag sets the
// parameter description.
//
// # Invocation
//
// [Registry.Invoke] looks the tool up, validates the arguments against the
// schema and calls it. Each failure has its own error type:
//
//   - [NotFoundError]: no tool is registered under the name
//   - [ArgumentError]: the arguments do not match the schema
//   - [ExecutionError]: the callable failed or panicked
//
// [Registry.Execute] folds all three into an error [ai.ToolResult] so the
// model can see what went wrong and recover.
//
// # Built-in Tools
//
//   - [Calculator]: arithmetic expressions
//   - [Weather]: simulated weather reports
//   - [StockPrice]: simulated stock quotes
//   - [WebSearch]: web search through the Tavily API
package tool

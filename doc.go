// Package gatekeep provides the core types for a tool-calling conversational
// agent whose tool calls can be held for human approval.
//
// The root package defines the provider-neutral vocabulary shared by every
// other package: messages, tool definitions, tool calls and results, chat
// options and categorized provider errors. The behavior lives in the
// subpackages:
//
//   - [github.com/spetersoncode/gatekeep/tool]: tool descriptors, the tool
//     registry and the built-in tools (calculator, weather, stock prices,
//     web search)
//   - [github.com/spetersoncode/gatekeep/gate]: approval policies and the
//     per-conversation approval ledger
//   - [github.com/spetersoncode/gatekeep/agent]: the agent loop with
//     suspend/resume keyed by thread id
//   - [github.com/spetersoncode/gatekeep/store]: persistence adapters for
//     conversation state
//   - [github.com/spetersoncode/gatekeep/client]: provider construction and
//     retry wrapping
//   - [github.com/spetersoncode/gatekeep/agui], [github.com/spetersoncode/gatekeep/mcp]
//     and [github.com/spetersoncode/gatekeep/a2a]: protocol adapters that
//     expose the agent, approvals included, to frontends and other agents
//
// Callers conventionally import this package as ai:
//
//	import ai "github.com/spetersoncode/gatekeep"
//
// # Basic Usage
//
//	provider, err := client.New(ctx, client.Config{
//	    Provider: ai.ProviderAnthropic,
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry := tool.NewRegistry().Add(tool.Calculator())
//
//	a, err := agent.New(agent.Config{
//	    Model:  provider,
//	    Tools:  registry,
//	    Policy: gate.DefaultPolicy(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := a.Send(ctx, "thread-1", "What is 2+2?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Suspended() {
//	    res, err = a.Resume(ctx, "thread-1", res.Pending.CallID, gate.Approve)
//	}
//
// # Error Handling
//
// Provider errors are wrapped in [*Error], which carries an [ErrorCategory].
// Use [IsTransient] to decide whether a failed request may be retried.
package gatekeep

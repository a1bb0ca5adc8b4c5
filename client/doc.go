// Package client builds the model an agent talks to from configuration.
//
// A Client picks the provider backend (Anthropic, OpenAI or Google), applies
// default request options and retries transient failures with exponential
// backoff. Retries happen inside a single model query, so the agent loop
// only ever sees the final outcome.
//
// # Basic Usage
//
//	c, err := client.New(ctx, client.Config{
//	    Provider: ai.ProviderAnthropic,
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	    Retry:    retry.DefaultConfig(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a, err := agent.New(agent.Config{Model: c, Tools: tools, Policy: policy})
//
// # Wrapping Another Provider
//
// Any ai.ChatProvider can be given the same retry behavior:
//
//	model := client.Retrying(myProvider, retry.DefaultConfig())
//
// # Error Handling
//
// Provider errors are categorized. Use ai.IsTransient and ai.IsPermanent,
// or retry.IsTransient for the full heuristic:
//
//	if ai.IsPermanent(err) {
//	    log.Fatal("check your API key")
//	}
package client

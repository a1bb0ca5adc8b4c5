package client

import (
	"context"
	"fmt"
	"log/slog"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/internal/provider/anthropic"
	"github.com/spetersoncode/gatekeep/internal/provider/google"
	"github.com/spetersoncode/gatekeep/internal/provider/openai"
	"github.com/spetersoncode/gatekeep/retry"
)

// Config holds configuration for creating a Client.
type Config struct {
	// Provider selects the backend.
	Provider ai.Provider

	// APIKey authenticates against the provider.
	APIKey string

	// Model overrides the provider's default model.
	Model string

	// Retry configures retries of transient errors. The zero value makes a
	// single attempt.
	Retry retry.Config
}

// ErrMissingAPIKey is returned when no API key is configured for the provider.
type ErrMissingAPIKey struct {
	Provider ai.Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrUnsupportedProvider is returned for a provider without a backend.
type ErrUnsupportedProvider struct {
	Provider ai.Provider
}

func (e *ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Provider)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for chat requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for chat requests.
// Per-request options override this default.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithMaxTokens(n))
	}
}

// WithLogger logs failed attempts and retries.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is an ai.ChatProvider backed by one provider, with retries.
type Client struct {
	provider        ai.Provider
	backend         ai.ChatProvider
	retryConfig     retry.Config
	defaultChatOpts []ai.Option
	logger          *slog.Logger
}

// New creates a Client for the configured provider.
func New(ctx context.Context, cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ErrMissingAPIKey{Provider: cfg.Provider}
	}

	var backend ai.ChatProvider
	switch cfg.Provider {
	case ai.ProviderAnthropic:
		backend = anthropic.New(cfg.APIKey, anthropic.WithModel(cfg.Model))
	case ai.ProviderOpenAI:
		backend = openai.New(cfg.APIKey, openai.WithModel(cfg.Model))
	case ai.ProviderGoogle:
		g, err := google.New(ctx, cfg.APIKey, google.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google client: %w", err)
		}
		backend = g
	default:
		return nil, &ErrUnsupportedProvider{Provider: cfg.Provider}
	}

	return newClient(cfg.Provider, backend, cfg.Retry, opts...), nil
}

// Retrying wraps any provider with the retry behavior of a Client.
func Retrying(p ai.ChatProvider, cfg retry.Config, opts ...ClientOption) *Client {
	return newClient("", p, cfg, opts...)
}

func newClient(provider ai.Provider, backend ai.ChatProvider, cfg retry.Config, opts ...ClientOption) *Client {
	c := &Client{
		provider:    provider,
		backend:     backend,
		retryConfig: cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger != nil {
		next := c.retryConfig.OnEvent
		c.retryConfig.OnEvent = func(e retry.Event) {
			c.logRetry(e)
			if next != nil {
				next(e)
			}
		}
	}
	return c
}

// Provider returns the backend's provider, empty for wrapped providers.
func (c *Client) Provider() ai.Provider { return c.provider }

// Chat sends a conversation and returns a complete response, retrying
// transient errors according to the client's retry configuration.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	// Defaults first so per-request options override them.
	all := append(append([]ai.Option{}, c.defaultChatOpts...), opts...)

	return retry.Do(ctx, c.retryConfig, func(ctx context.Context) (*ai.Response, error) {
		return c.backend.Chat(ctx, messages, all...)
	})
}

func (c *Client) logRetry(e retry.Event) {
	attrs := []any{
		"provider", c.provider,
		"attempt", e.Attempt,
		"max_attempts", e.MaxAttempts,
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	switch e.Type {
	case retry.EventRetrying:
		c.logger.Warn("retrying model query", append(attrs, "delay", e.Delay)...)
	case retry.EventExhausted:
		c.logger.Error("model query failed after retries", attrs...)
	default:
		c.logger.Debug("model query attempt failed", append(attrs, "retryable", e.Retryable)...)
	}
}

var _ ai.ChatProvider = (*Client)(nil)

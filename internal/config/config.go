// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/retry"
)

// Config holds settings shared by the commands.
type Config struct {
	Provider string `env:"GATEKEEP_PROVIDER" envDefault:"google"`
	Model    string `env:"GATEKEEP_MODEL"`

	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	GoogleKey    string `env:"GOOGLE_API_KEY"`
	GeminiKey    string `env:"GEMINI_API_KEY"`

	// SearchKey enables the web_search tool when set.
	SearchKey string `env:"TAVILY_API_KEY"`
	SearchRPM int    `env:"GATEKEEP_SEARCH_RPM" envDefault:"30"`

	// PolicyPath names a YAML approval policy. Empty uses the default policy.
	PolicyPath string `env:"GATEKEEP_POLICY"`
	// StorePath names a SQLite database. Empty keeps conversations in memory.
	StorePath string `env:"GATEKEEP_STORE"`
	// MCPCommand launches an MCP server whose tools are added to the registry.
	MCPCommand []string `env:"GATEKEEP_MCP_COMMAND" envSeparator:" "`

	LogLevel    string        `env:"GATEKEEP_LOG_LEVEL" envDefault:"info"`
	MaxSteps    int           `env:"GATEKEEP_MAX_STEPS" envDefault:"10"`
	ToolTimeout time.Duration `env:"GATEKEEP_TOOL_TIMEOUT" envDefault:"30s"`
	Addr        string        `env:"GATEKEEP_ADDR" envDefault:":8000"`

	Retry retry.Config `envPrefix:"GATEKEEP_RETRY_"`
}

// Load reads a .env file if present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the environment into a validated Config.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected provider has a key and that numeric
// settings are in range.
func (c Config) Validate() error {
	p, err := ai.ParseProvider(c.Provider)
	if err != nil {
		return fmt.Errorf("config: GATEKEEP_PROVIDER: %w", err)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("config: %s is required for the %s provider", keyVar(p), p)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxSteps < 1 {
		return errors.New("config: GATEKEEP_MAX_STEPS must be at least 1")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("config: GATEKEEP_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// ProviderName returns the parsed provider. Call after Validate.
func (c Config) ProviderName() ai.Provider {
	p, _ := ai.ParseProvider(c.Provider)
	return p
}

// APIKey returns the key for the selected provider.
func (c Config) APIKey() string {
	switch c.ProviderName() {
	case ai.ProviderAnthropic:
		return c.AnthropicKey
	case ai.ProviderOpenAI:
		return c.OpenAIKey
	case ai.ProviderGoogle:
		if c.GoogleKey != "" {
			return c.GoogleKey
		}
		return c.GeminiKey
	}
	return ""
}

func keyVar(p ai.Provider) string {
	switch p {
	case ai.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ai.ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log level %q", level)
}

// NewLogger builds a text slog logger writing to w. Unknown levels fall
// back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Package app assembles the pieces the commands share: logger, model client,
// tool registry, approval policy and conversation store.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/client"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/internal/config"
	"github.com/spetersoncode/gatekeep/mcp"
	"github.com/spetersoncode/gatekeep/store"
	"github.com/spetersoncode/gatekeep/tool"
)

// SystemPrompt is the default instruction for the single-agent commands.
const SystemPrompt = "You are a helpful assistant. Use the available tools when they help answer the question, " +
	"and say so plainly when a tool call was declined."

// App holds the shared dependencies built from a Config.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Client *client.Client
	Tools  *tool.Registry
	Policy *gate.Policy
	Store  store.Adapter

	closers []func() error
}

// New builds an App. Log output goes to w.
func New(ctx context.Context, cfg config.Config, w io.Writer) (*App, error) {
	logger := config.NewLogger(cfg.LogLevel, w)
	a := &App{Config: cfg, Logger: logger}

	c, err := client.New(ctx, client.Config{
		Provider: cfg.ProviderName(),
		APIKey:   cfg.APIKey(),
		Model:    cfg.Model,
		Retry:    cfg.Retry,
	}, client.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a.Client = c

	a.Policy = gate.DefaultPolicy()
	if cfg.PolicyPath != "" {
		if a.Policy, err = gate.LoadPolicy(cfg.PolicyPath); err != nil {
			return nil, err
		}
	}

	if err := a.buildTools(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.StorePath != "" {
		s, err := store.NewSQLiteAdapter(cfg.StorePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = s
	} else {
		a.Store = store.NewMemoryAdapter()
	}
	a.closers = append(a.closers, a.Store.Close)

	logger.Debug("app ready",
		"provider", c.Provider(),
		"tools", a.Tools.Names(),
		"gated", a.Policy.Tools(),
		"store", cfg.StorePath,
	)
	return a, nil
}

func (a *App) buildTools(ctx context.Context) error {
	a.Tools = tool.NewRegistry(tool.WithTimeout(a.Config.ToolTimeout))
	a.Tools.Add(tool.Calculator(), tool.Weather(), tool.StockPrice())

	if a.Config.SearchKey != "" {
		search, err := tool.WebSearch(tool.SearchConfig{
			APIKey:            a.Config.SearchKey,
			RequestsPerMinute: a.Config.SearchRPM,
		})
		if err != nil {
			return err
		}
		a.Tools.Add(search)
	}

	if len(a.Config.MCPCommand) > 0 {
		remote, err := mcp.NewStdioRemote(ctx, a.Config.MCPCommand[0], nil, a.Config.MCPCommand[1:]...)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, remote.Close)
		descs, err := remote.Descriptors(ctx)
		if err != nil {
			return err
		}
		for _, d := range descs {
			if err := a.Tools.Register(d); err != nil {
				return fmt.Errorf("mcp tool %s: %w", d.Name(), err)
			}
		}
	}
	return nil
}

// Agent builds an agent over the shared dependencies. Name, prompt,
// description and handoffs come from base; the rest is filled in.
func (a *App) Agent(base agent.Config) (*agent.Agent, error) {
	base.Model = a.Client
	if base.Tools == nil {
		base.Tools = a.Tools
	}
	if base.Policy == nil {
		base.Policy = a.Policy
	}
	if base.Store == nil {
		base.Store = a.Store
	}
	if base.Logger == nil {
		base.Logger = a.Logger
	}
	if base.MaxSteps == 0 {
		base.MaxSteps = a.Config.MaxSteps
	}
	return agent.New(base)
}

// Close releases the store and any remote tool servers.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

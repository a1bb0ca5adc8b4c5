package agent

import (
	"log/slog"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/store"
	"github.com/spetersoncode/gatekeep/tool"
)

// DefaultMaxSteps bounds the model queries of a single turn.
const DefaultMaxSteps = 10

// Config configures an Agent.
type Config struct {
	// Name identifies the agent. Required for agents used as handoff targets.
	Name string

	// Description tells a routing agent when to hand off to this one.
	Description string

	// Model is queried for every step. Required.
	Model ai.ChatProvider

	// Tools are offered to the model. Nil means no tools.
	Tools *tool.Registry

	// Policy decides which tool calls wait for approval. Nil gates nothing.
	Policy *gate.Policy

	// Store persists conversations. Nil keeps them in memory.
	Store store.Adapter

	// Observer receives lifecycle events.
	Observer Observer

	// Logger receives debug logs of state transitions. Defaults to slog.Default().
	Logger *slog.Logger

	// SystemPrompt is prepended to the history on every query.
	SystemPrompt string

	// MaxSteps limits model queries per turn. Default is DefaultMaxSteps.
	MaxSteps int

	// ChatOptions are passed through to the model on every query.
	ChatOptions []ai.Option

	// Handoffs are specialists this agent may transfer the turn to.
	Handoffs []*Agent
}

func (c *Config) applyDefaults() {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

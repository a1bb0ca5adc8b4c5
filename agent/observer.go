package agent

import (
	"context"
	"log/slog"
	"time"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/gate"
)

// EventType identifies a lifecycle event of the agent loop.
type EventType string

const (
	// EventModelQueryStart fires before the model is queried.
	EventModelQueryStart EventType = "model_query_start"

	// EventModelQueryEnd fires after the model answers or fails. Err is set on failure.
	EventModelQueryEnd EventType = "model_query_end"

	// EventToolCallDetected fires when a queued tool call reaches the gate.
	EventToolCallDetected EventType = "tool_call_detected"

	// EventToolExecuted fires after a tool call produced a result, including
	// error and declined results.
	EventToolExecuted EventType = "tool_executed"

	// EventSuspended fires when a gated call suspends the conversation.
	EventSuspended EventType = "suspended"

	// EventResumed fires when a decision is applied to a suspended conversation.
	EventResumed EventType = "resumed"

	// EventHandoff fires when the turn moves to another agent.
	EventHandoff EventType = "handoff"

	// EventTurnComplete fires when the model produced its final answer.
	EventTurnComplete EventType = "turn_complete"
)

// Event describes one occurrence in the agent loop.
type Event struct {
	Type     EventType
	ThreadID string
	// Agent is the name of the agent handling the turn.
	Agent string
	// Step is the number of model queries made so far in the turn.
	Step       int
	ToolCall   *ai.ToolCall
	ToolResult *ai.ToolResult
	Pending    *gate.Pending
	Decision   gate.Decision
	Response   *ai.Response
	// Answer is the final text for EventTurnComplete.
	Answer    string
	Err       error
	Timestamp time.Time
}

// Observer receives agent lifecycle events. OnEvent is called synchronously
// from the loop and should return quickly.
type Observer interface {
	OnEvent(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(ctx context.Context, e Event) { f(ctx, e) }

type multiObserver []Observer

func (m multiObserver) OnEvent(ctx context.Context, e Event) {
	for _, o := range m {
		o.OnEvent(ctx, e)
	}
}

// Observers fans events out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

type observerKey struct{}

// WithObserver attaches an observer to ctx. Events of calls made with the
// returned context are delivered to it in addition to the agent's own observer.
func WithObserver(ctx context.Context, obs Observer) context.Context {
	if existing, ok := ctx.Value(observerKey{}).(Observer); ok {
		obs = Observers(existing, obs)
	}
	return context.WithValue(ctx, observerKey{}, obs)
}

func observerFrom(ctx context.Context) Observer {
	obs, _ := ctx.Value(observerKey{}).(Observer)
	return obs
}

// NewLogObserver returns an Observer that writes every event to logger.
// Query events are logged at debug level, everything else at info.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return ObserverFunc(func(ctx context.Context, e Event) {
		level := slog.LevelInfo
		if e.Type == EventModelQueryStart || e.Type == EventModelQueryEnd || e.Type == EventToolCallDetected {
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("thread", e.ThreadID),
			slog.Int("step", e.Step),
		}
		if e.Agent != "" {
			attrs = append(attrs, slog.String("agent", e.Agent))
		}
		if e.ToolCall != nil {
			attrs = append(attrs, slog.String("tool", e.ToolCall.Name), slog.String("call_id", e.ToolCall.ID))
		}
		if e.ToolResult != nil {
			attrs = append(attrs, slog.Bool("is_error", e.ToolResult.IsError), slog.Int("result_len", len(e.ToolResult.Content)))
		}
		if e.Pending != nil && e.ToolCall == nil {
			attrs = append(attrs, slog.String("tool", e.Pending.ToolName), slog.String("call_id", e.Pending.CallID))
		}
		if e.Decision != "" {
			attrs = append(attrs, slog.String("decision", string(e.Decision)))
		}
		if e.Response != nil {
			attrs = append(attrs,
				slog.Int("tool_calls", len(e.Response.ToolCalls)),
				slog.Int("input_tokens", e.Response.Usage.InputTokens),
				slog.Int("output_tokens", e.Response.Usage.OutputTokens),
			)
		}
		if e.Err != nil {
			level = slog.LevelError
			attrs = append(attrs, slog.String("error", e.Err.Error()))
		}

		logger.LogAttrs(ctx, level, string(e.Type), attrs...)
	})
}

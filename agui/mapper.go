package agui

import (
	"context"
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/gatekeep/agent"
)

// Mapper converts agent events to AG-UI events for a single run.
//
// Create a new Mapper for each run using NewMapper. The Mapper is not
// safe for concurrent use.
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a new Mapper for a single run. Empty ids are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{threadID: threadID, runID: runID}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string { return m.threadID }

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string { return m.runID }

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// ModelStepName names the step wrapping a model query.
func ModelStepName(step int) string { return fmt.Sprintf("model_query:%d", step) }

// ApprovalStepName names the step spanning a suspension.
func ApprovalStepName(callID string) string { return "approval:" + callID }

// Map converts one agent event into zero or more AG-UI events.
func (m *Mapper) Map(e agent.Event) []events.Event {
	switch e.Type {
	case agent.EventModelQueryStart:
		return []events.Event{events.NewStepStartedEvent(ModelStepName(e.Step))}
	case agent.EventModelQueryEnd:
		return []events.Event{events.NewStepFinishedEvent(ModelStepName(e.Step))}

	case agent.EventToolCallDetected:
		if e.ToolCall == nil {
			return nil
		}
		out := []events.Event{events.NewToolCallStartEvent(e.ToolCall.ID, e.ToolCall.Name)}
		if e.ToolCall.Arguments != "" {
			out = append(out, events.NewToolCallArgsEvent(e.ToolCall.ID, e.ToolCall.Arguments))
		}
		return append(out, events.NewToolCallEndEvent(e.ToolCall.ID))
	case agent.EventToolExecuted:
		if e.ToolCall == nil || e.ToolResult == nil {
			return nil
		}
		return []events.Event{
			events.NewToolCallResultEvent(events.GenerateMessageID(), e.ToolCall.ID, e.ToolResult.Content),
		}

	case agent.EventSuspended:
		if e.Pending == nil {
			return nil
		}
		return []events.Event{events.NewStepStartedEvent(ApprovalStepName(e.Pending.CallID))}
	case agent.EventResumed:
		if e.Pending == nil {
			return nil
		}
		return []events.Event{events.NewStepFinishedEvent(ApprovalStepName(e.Pending.CallID))}

	case agent.EventHandoff:
		name := "handoff:" + e.Agent
		return []events.Event{events.NewStepStartedEvent(name), events.NewStepFinishedEvent(name)}

	case agent.EventTurnComplete:
		if e.Answer == "" {
			return nil
		}
		id := events.GenerateMessageID()
		return []events.Event{
			events.NewTextMessageStartEvent(id, events.WithRole(RoleAssistant)),
			events.NewTextMessageContentEvent(id, e.Answer),
			events.NewTextMessageEndEvent(id),
		}
	}
	return nil
}

// Observer returns an agent.Observer that maps every event and hands the
// results to emit.
func (m *Mapper) Observer(emit func(events.Event)) agent.Observer {
	return agent.ObserverFunc(func(ctx context.Context, e agent.Event) {
		for _, ev := range m.Map(e) {
			emit(ev)
		}
	})
}

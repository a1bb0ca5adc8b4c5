package a2a

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
)

// Mapper converts agent events into A2A task updates for a single task.
//
// A2A frames everything as task status changes or artifacts: model queries
// put the task in working, tool results become artifacts, a suspension is
// input-required and the final answer completes the task.
//
// A Mapper is not safe for concurrent use.
type Mapper struct {
	taskID    string
	contextID string
	state     TaskState
}

// NewMapper creates a Mapper. Empty ids are generated.
func NewMapper(taskID, contextID string) *Mapper {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if contextID == "" {
		contextID = uuid.NewString()
	}
	return &Mapper{
		taskID:    taskID,
		contextID: contextID,
		state:     TaskStateSubmitted,
	}
}

// TaskID returns the task ID for this mapper.
func (m *Mapper) TaskID() string { return m.taskID }

// ContextID returns the context ID, which is the conversation thread id.
func (m *Mapper) ContextID() string { return m.contextID }

// State returns the last reported task state.
func (m *Mapper) State() TaskState { return m.state }

// StatusUpdate records state and returns the matching status update event.
func (m *Mapper) StatusUpdate(state TaskState, msg *Message) TaskStatusUpdateEvent {
	m.state = state
	return TaskStatusUpdateEvent{
		Kind:      "status-update",
		TaskID:    m.taskID,
		ContextID: m.contextID,
		Status:    NewTaskStatus(state, msg),
		Final:     state.IsTerminal() || state == TaskStateInputRequired,
	}
}

// ArtifactUpdate returns an artifact update event for this task.
func (m *Mapper) ArtifactUpdate(artifact Artifact) TaskArtifactUpdateEvent {
	return TaskArtifactUpdateEvent{
		Kind:      "artifact-update",
		TaskID:    m.taskID,
		ContextID: m.contextID,
		Artifact:  artifact,
	}
}

// Working returns a status update for the working state.
func (m *Mapper) Working() TaskStatusUpdateEvent {
	return m.StatusUpdate(TaskStateWorking, nil)
}

// InputRequired returns a status update asking the client to decide on p.
func (m *Mapper) InputRequired(p gate.Pending) TaskStatusUpdateEvent {
	return m.StatusUpdate(TaskStateInputRequired, m.message(NewTextPart(p.Description), ApprovalRequestPart(p)))
}

// Completed returns a final status update carrying the answer.
func (m *Mapper) Completed(answer string) TaskStatusUpdateEvent {
	var msg *Message
	if answer != "" {
		msg = m.message(NewTextPart(answer))
	}
	return m.StatusUpdate(TaskStateCompleted, msg)
}

// Failed returns a final status update for failure.
func (m *Mapper) Failed(err error) TaskStatusUpdateEvent {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	return m.StatusUpdate(TaskStateFailed, m.message(NewTextPart(errMsg)))
}

func (m *Mapper) message(parts ...Part) *Message {
	msg := NewMessageWithContext(MessageRoleAgent, m.contextID, &m.taskID, parts...)
	return &msg
}

// Map converts an agent event to an A2A event. Returns nil for events that
// need no update.
func (m *Mapper) Map(e agent.Event) Event {
	switch e.Type {
	case agent.EventModelQueryStart, agent.EventResumed:
		if m.state != TaskStateWorking {
			return m.Working()
		}
		return nil

	case agent.EventModelQueryEnd:
		if e.Err != nil {
			return m.Failed(e.Err)
		}
		return nil

	case agent.EventHandoff:
		return m.StatusUpdate(TaskStateWorking, m.message(NewTextPart(fmt.Sprintf("Transferred to %s", e.Agent))))

	case agent.EventToolExecuted:
		if e.ToolCall == nil || e.ToolResult == nil {
			return nil
		}
		artifact := NewArtifact(e.ToolCall.Name, "Tool execution result", NewTextPart(e.ToolResult.Content))
		artifact.Metadata = map[string]any{
			"toolCallId": e.ToolCall.ID,
			"toolName":   e.ToolCall.Name,
			"isError":    e.ToolResult.IsError,
		}
		return m.ArtifactUpdate(artifact)

	case agent.EventSuspended:
		if e.Pending == nil {
			return nil
		}
		return m.InputRequired(*e.Pending)

	case agent.EventTurnComplete:
		return m.Completed(e.Answer)

	default:
		return nil
	}
}

// Observer returns an agent observer that sends mapped events to emit.
func (m *Mapper) Observer(emit func(Event)) agent.Observer {
	return agent.ObserverFunc(func(ctx context.Context, e agent.Event) {
		if ev := m.Map(e); ev != nil {
			emit(ev)
		}
	})
}

// Task builds the task for a finished or suspended turn.
func (m *Mapper) Task(res *agent.Result) *Task {
	task := NewTask(m.taskID, m.contextID)
	switch {
	case res.Suspended():
		task.Status = m.InputRequired(*res.Pending).Status
	default:
		task.Status = m.Completed(res.Answer).Status
	}
	if res.Agent != "" {
		task.Metadata = map[string]any{"agent": res.Agent}
	}
	return task
}

// FailedTask builds the task for a turn that failed.
func (m *Mapper) FailedTask(err error) *Task {
	task := NewTask(m.taskID, m.contextID)
	task.Status = m.Failed(err).Status
	return task
}

package a2a

import (
	"context"
	"errors"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
)

// ErrEmptyMessage is returned for a message with neither text nor an approval.
var ErrEmptyMessage = errors.New("a2a: message has no text or approval")

// Runner is the part of an agent the executor drives.
type Runner interface {
	Send(ctx context.Context, threadID, text string) (*agent.Result, error)
	Resume(ctx context.Context, threadID, callID string, decision gate.Decision) (*agent.Result, error)
	Conversation(ctx context.Context, threadID string) (*agent.Conversation, error)
}

var _ Runner = (*agent.Agent)(nil)

// SendMessageRequest represents an A2A message/send request.
type SendMessageRequest struct {
	Message       Message                   `json:"message"`
	Configuration *SendMessageConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// SendMessageConfiguration contains options for the send request.
type SendMessageConfiguration struct {
	// HistoryLength includes up to this many conversation messages in the
	// returned task.
	HistoryLength *int `json:"historyLength,omitempty"`
}

// Executor runs A2A requests against an agent. The message's context id is
// the conversation thread. A message carrying an approval data part resolves
// the pending call; any other message starts a turn with its text.
type Executor struct {
	agent Runner
}

// NewExecutor creates an Executor for the given agent.
func NewExecutor(r Runner) *Executor {
	return &Executor{agent: r}
}

// Execute runs the turn synchronously and returns the resulting task.
// A model failure yields a failed task; request problems such as an unknown
// call id or an already resolved approval are returned as errors.
func (e *Executor) Execute(ctx context.Context, req SendMessageRequest) (*Task, error) {
	mapper := newRequestMapper(req)

	res, err := e.turn(ctx, mapper.ContextID(), req.Message)
	if errors.Is(err, agent.ErrModelQuery) {
		return mapper.FailedTask(err), nil
	}
	if err != nil {
		return nil, err
	}

	task := mapper.Task(res)
	task.History = e.history(ctx, mapper.ContextID(), req.Configuration)
	return task, nil
}

// ExecuteStream runs the turn and streams task updates. The channel closes
// after the final update. Request errors are reported as a failed status.
// Once ctx is done, remaining updates are dropped so the turn can finish
// without a reader.
func (e *Executor) ExecuteStream(ctx context.Context, req SendMessageRequest) <-chan Event {
	output := make(chan Event, 100)
	send := func(ev Event) {
		select {
		case output <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(output)

		mapper := newRequestMapper(req)
		ctx := agent.WithObserver(ctx, mapper.Observer(send))

		_, err := e.turn(ctx, mapper.ContextID(), req.Message)
		if err != nil && !mapper.State().IsTerminal() {
			send(mapper.Failed(err))
		}
	}()

	return output
}

func (e *Executor) turn(ctx context.Context, threadID string, msg Message) (*agent.Result, error) {
	if approval, ok := ApprovalFromMessage(msg); ok {
		d, err := gate.ParseDecision(approval.Decision)
		if err != nil {
			return nil, err
		}
		return e.agent.Resume(ctx, threadID, approval.ToolCallID, d)
	}

	text := msg.TextContent()
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return e.agent.Send(ctx, threadID, text)
}

func (e *Executor) history(ctx context.Context, threadID string, cfg *SendMessageConfiguration) []Message {
	if cfg == nil || cfg.HistoryLength == nil || *cfg.HistoryLength <= 0 {
		return nil
	}
	conv, err := e.agent.Conversation(ctx, threadID)
	if err != nil {
		return nil
	}
	msgs := conv.Messages
	if n := *cfg.HistoryLength; len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return FromMessages(msgs)
}

func newRequestMapper(req SendMessageRequest) *Mapper {
	var taskID, contextID string
	if req.Message.TaskID != nil {
		taskID = *req.Message.TaskID
	}
	if req.Message.ContextID != nil {
		contextID = *req.Message.ContextID
	}
	return NewMapper(taskID, contextID)
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/store"
)

// DeclinedMessage is the tool result content recorded for a rejected call.
const DeclinedMessage = "The user declined this tool call. It was not executed."

// Agent drives conversations through the model, the approval gate and the
// tool registry. It is safe for concurrent use; calls for the same thread
// are serialized.
type Agent struct {
	cfg   Config
	convs *ConversationStore
	log   *slog.Logger

	locks sync.Map // thread id -> *sync.Mutex
}

// Result is the outcome of Send, Resume or Retry.
type Result struct {
	ThreadID string
	// Agent is the name of the agent that produced the result.
	Agent string
	// Answer is the model's final text. Empty when suspended.
	Answer string
	// Pending is the approval request that suspended the turn, if any.
	Pending *gate.Pending
	// Steps is the number of model queries made during the turn so far.
	Steps int
	// Usage aggregates token usage of the queries made by this call.
	Usage ai.Usage
}

// Suspended reports whether the turn is waiting for an approval decision.
func (r *Result) Suspended() bool { return r.Pending != nil }

// New creates an Agent from cfg.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, errors.New("agent: config requires a model")
	}
	cfg.applyDefaults()

	a := &Agent{
		cfg:   cfg,
		convs: NewConversationStore(cfg.Store),
		log:   cfg.Logger,
	}
	if err := a.validateHandoffs(); err != nil {
		return nil, err
	}
	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg Config) *Agent {
	a, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// Name returns the agent's configured name.
func (a *Agent) Name() string { return a.cfg.Name }

// Conversations returns the store the agent persists threads in.
func (a *Agent) Conversations() *ConversationStore { return a.convs }

// Conversation returns a snapshot of a thread's state.
func (a *Agent) Conversation(ctx context.Context, threadID string) (*Conversation, error) {
	conv, err := a.convs.Load(ctx, threadID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return conv, err
}

// Send appends a user message to the thread, creating it if needed, and runs
// the loop until the model answers or a tool call needs approval.
func (a *Agent) Send(ctx context.Context, threadID, text string) (*Result, error) {
	if threadID == "" {
		return nil, errors.New("agent: thread id is required")
	}
	unlock := a.lock(threadID)
	defer unlock()

	conv, err := a.convs.loadOrCreate(ctx, threadID)
	if err != nil {
		return nil, err
	}

	switch conv.State {
	case StateAwaitingInput, StateDone:
	case StateSuspended:
		p, _ := conv.Pending()
		return nil, fmt.Errorf("%w: call %s (%s)", ErrApprovalPending, p.CallID, p.ToolName)
	default:
		return nil, fmt.Errorf("%w: thread %s is in %s", ErrTurnIncomplete, threadID, conv.State)
	}

	conv.Steps = 0
	conv.Active = ""
	conv.append(ai.NewUserMessage(text))
	a.transition(conv, StateModelThinking)

	return a.run(ctx, conv)
}

// Resume applies a decision to the thread's pending approval and continues
// the loop. Gate errors (unknown call id, already resolved, invalid or
// disallowed decision) leave the conversation unchanged.
func (a *Agent) Resume(ctx context.Context, threadID, callID string, decision gate.Decision) (*Result, error) {
	unlock := a.lock(threadID)
	defer unlock()

	conv, err := a.convs.Load(ctx, threadID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	if err != nil {
		return nil, err
	}

	outcome, err := conv.Approvals.Resolve(callID, decision)
	if err != nil {
		return nil, err
	}

	call, ok := conv.head()
	if conv.State != StateSuspended || !ok || call.ID != callID {
		return nil, fmt.Errorf("agent: thread %s is not suspended on call %s", threadID, callID)
	}

	current := a.active(conv)
	a.emit(ctx, Event{
		Type:     EventResumed,
		ThreadID: threadID,
		Agent:    current.cfg.Name,
		Step:     conv.Steps,
		ToolCall: &call,
		Pending:  &outcome.Pending,
		Decision: outcome.Decision,
	})

	if outcome.Approved() {
		a.transition(conv, StateExecutingTool)
	} else {
		conv.pop()
		a.record(ctx, conv, current, call, ai.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    DeclinedMessage,
			IsError:    true,
		})
		a.transition(conv, StateToolGateCheck)
	}

	return a.run(ctx, conv)
}

// Retry re-runs a turn that stopped on a failed model query.
func (a *Agent) Retry(ctx context.Context, threadID string) (*Result, error) {
	unlock := a.lock(threadID)
	defer unlock()

	conv, err := a.convs.Load(ctx, threadID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	if err != nil {
		return nil, err
	}

	switch conv.State {
	case StateModelThinking, StateToolGateCheck:
		return a.run(ctx, conv)
	default:
		return nil, fmt.Errorf("%w: thread %s is in %s", ErrNothingToRetry, threadID, conv.State)
	}
}

// run advances the state machine until the turn completes, suspends or fails.
func (a *Agent) run(ctx context.Context, conv *Conversation) (*Result, error) {
	res := &Result{ThreadID: conv.ThreadID}

	for {
		current := a.active(conv)
		res.Agent = current.cfg.Name
		res.Steps = conv.Steps

		switch conv.State {
		case StateModelThinking:
			if conv.Steps >= a.cfg.MaxSteps {
				conv.Queue = nil
				conv.Active = ""
				a.transition(conv, StateAwaitingInput)
				if err := a.convs.Save(ctx, conv); err != nil {
					return nil, err
				}
				return res, fmt.Errorf("%w (%d)", ErrMaxSteps, a.cfg.MaxSteps)
			}

			resp, err := a.query(ctx, conv, current)
			if err != nil {
				// Keep every completed step so the query can be retried.
				if saveErr := a.convs.Save(ctx, conv); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			res.Usage = res.Usage.Add(resp.Usage)

			calls := withCallIDs(resp.ToolCalls)
			conv.append(ai.NewAssistantMessage(resp.Content, calls...))
			if len(calls) == 0 {
				a.transition(conv, StateDone)
				continue
			}
			conv.Queue = calls
			a.transition(conv, StateToolGateCheck)

		case StateToolGateCheck:
			call, ok := conv.head()
			if !ok {
				a.transition(conv, StateModelThinking)
				continue
			}
			a.emit(ctx, Event{Type: EventToolCallDetected, ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: conv.Steps, ToolCall: &call})

			if target, ok := current.handoffTarget(call.Name); ok {
				conv.pop()
				a.record(ctx, conv, current, call, ai.ToolResult{
					ToolCallID: call.ID,
					Name:       call.Name,
					Content:    fmt.Sprintf("Transferred to %s.", target.cfg.Name),
				})
				conv.Active = target.cfg.Name
				a.emit(ctx, Event{Type: EventHandoff, ThreadID: conv.ThreadID, Agent: target.cfg.Name, Step: conv.Steps, ToolCall: &call})
				continue
			}

			args, err := call.Args()
			if err != nil {
				conv.pop()
				a.record(ctx, conv, current, call, current.cfg.Tools.Execute(ctx, call))
				continue
			}

			if pending, gated := current.cfg.Policy.Check(call, args); gated {
				p, err := conv.Approvals.Submit(pending)
				if errors.Is(err, gate.ErrDuplicateCall) {
					conv.pop()
					a.record(ctx, conv, current, call, ai.ToolResult{
						ToolCallID: call.ID,
						Name:       call.Name,
						Content:    "tool call id was already used; issue a new call",
						IsError:    true,
					})
					continue
				}
				if err != nil {
					return nil, err
				}

				a.transition(conv, StateSuspended)
				if err := a.convs.Save(ctx, conv); err != nil {
					return nil, err
				}
				a.emit(ctx, Event{Type: EventSuspended, ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: conv.Steps, ToolCall: &call, Pending: &p})
				res.Pending = &p
				return res, nil
			}
			a.transition(conv, StateExecutingTool)

		case StateExecutingTool:
			call, ok := conv.head()
			if !ok {
				a.transition(conv, StateModelThinking)
				continue
			}
			args, err := call.Args()
			if err == nil && current.cfg.Policy.RequiresApproval(call.Name, args) && !conv.Approvals.Approved(call.ID) {
				return nil, fmt.Errorf("%w: %s (%s)", ErrNotApproved, call.ID, call.Name)
			}

			result := current.cfg.Tools.Execute(ctx, call)
			conv.pop()
			a.record(ctx, conv, current, call, result)
			a.transition(conv, StateToolGateCheck)
			if err := a.convs.Save(ctx, conv); err != nil {
				return nil, err
			}

		case StateDone:
			res.Answer = conv.LastAnswer()
			conv.Active = ""
			a.transition(conv, StateAwaitingInput)
			if err := a.convs.Save(ctx, conv); err != nil {
				return nil, err
			}
			a.emit(ctx, Event{Type: EventTurnComplete, ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: conv.Steps, Answer: res.Answer})
			return res, nil

		case StateSuspended:
			p, _ := conv.Pending()
			res.Pending = &p
			return res, nil

		default:
			return nil, fmt.Errorf("agent: thread %s has no turn in progress (%s)", conv.ThreadID, conv.State)
		}
	}
}

// query asks the active agent's model for the next step.
func (a *Agent) query(ctx context.Context, conv *Conversation, current *Agent) (*ai.Response, error) {
	conv.Steps++
	step := conv.Steps

	messages := make([]ai.Message, 0, len(conv.Messages)+1)
	if current.cfg.SystemPrompt != "" {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: current.cfg.SystemPrompt})
	}
	messages = append(messages, conv.Messages...)

	tools := append(current.cfg.Tools.Tools(), current.handoffTools()...)
	opts := append([]ai.Option{}, current.cfg.ChatOptions...)
	if len(tools) > 0 {
		opts = append(opts, ai.WithTools(tools...))
	}

	a.emit(ctx, Event{Type: EventModelQueryStart, ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: step})
	resp, err := current.cfg.Model.Chat(ctx, messages, opts...)
	if err == nil && resp == nil {
		err = errors.New("model returned no response")
	}
	if err != nil {
		conv.Steps--
		qerr := &ModelQueryError{ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: step, Err: err}
		a.emit(ctx, Event{Type: EventModelQueryEnd, ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: step, Err: qerr})
		return nil, qerr
	}
	a.emit(ctx, Event{Type: EventModelQueryEnd, ThreadID: conv.ThreadID, Agent: current.cfg.Name, Step: step, Response: resp})
	return resp, nil
}

// record appends a tool result to the history and reports it.
func (a *Agent) record(ctx context.Context, conv *Conversation, current *Agent, call ai.ToolCall, result ai.ToolResult) {
	conv.append(ai.NewToolResultMessage(result))
	a.emit(ctx, Event{
		Type:       EventToolExecuted,
		ThreadID:   conv.ThreadID,
		Agent:      current.cfg.Name,
		Step:       conv.Steps,
		ToolCall:   &call,
		ToolResult: &result,
	})
}

func (a *Agent) transition(conv *Conversation, next State) {
	a.log.Debug("state transition",
		"thread", conv.ThreadID,
		"agent", conv.Active,
		"from", conv.State,
		"state", next,
	)
	conv.State = next
}

func (a *Agent) active(conv *Conversation) *Agent {
	if found, ok := a.find(conv.Active); ok {
		return found
	}
	a.log.Warn("unknown active agent, falling back to root", "thread", conv.ThreadID, "agent", conv.Active)
	conv.Active = ""
	return a
}

func (a *Agent) emit(ctx context.Context, e Event) {
	e.Timestamp = time.Now()
	if a.cfg.Observer != nil {
		a.cfg.Observer.OnEvent(ctx, e)
	}
	if obs := observerFrom(ctx); obs != nil {
		obs.OnEvent(ctx, e)
	}
}

func (a *Agent) lock(threadID string) func() {
	v, _ := a.locks.LoadOrStore(threadID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// withCallIDs assigns ids to tool calls that arrived without one.
func withCallIDs(calls []ai.ToolCall) []ai.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ai.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = "call_" + uuid.NewString()
		}
		out[i] = c
	}
	return out
}

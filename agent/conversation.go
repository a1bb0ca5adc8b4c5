package agent

import (
	"context"
	"errors"
	"time"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/store"
)

// State is a conversation's position in the agent loop.
type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateModelThinking State = "model_thinking"
	StateToolGateCheck State = "tool_gate_check"
	StateSuspended     State = "suspended_for_approval"
	StateExecutingTool State = "executing_tool"
	StateDone          State = "done"
)

// Conversation is the persisted state of one thread.
type Conversation struct {
	ThreadID string `json:"threadId"`
	State    State  `json:"state"`
	// Messages is the append-only history. The system prompt is not stored.
	Messages []ai.Message `json:"messages"`
	// Queue holds the tool calls of the latest assistant message that have
	// not been handled yet. The head is the call under consideration.
	Queue []ai.ToolCall `json:"queue,omitempty"`
	// Active names the agent handling the current turn. Empty means the root.
	Active string `json:"active,omitempty"`
	// Steps counts model queries in the current turn.
	Steps     int         `json:"steps"`
	Approvals gate.Ledger `json:"approvals"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func newConversation(threadID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ThreadID:  threadID,
		State:     StateAwaitingInput,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Pending returns the outstanding approval request, if any.
func (c *Conversation) Pending() (gate.Pending, bool) {
	return c.Approvals.Outstanding()
}

// LastAnswer returns the content of the most recent assistant message.
func (c *Conversation) LastAnswer() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == ai.RoleAssistant {
			return c.Messages[i].Content
		}
	}
	return ""
}

func (c *Conversation) append(msgs ...ai.Message) {
	c.Messages = append(c.Messages, msgs...)
}

func (c *Conversation) head() (ai.ToolCall, bool) {
	if len(c.Queue) == 0 {
		return ai.ToolCall{}, false
	}
	return c.Queue[0], true
}

func (c *Conversation) pop() {
	if len(c.Queue) > 0 {
		c.Queue = c.Queue[1:]
	}
	if len(c.Queue) == 0 {
		c.Queue = nil
	}
}

// ConversationStore reads and writes conversations through a store adapter.
type ConversationStore struct {
	adapter store.Adapter
}

// NewConversationStore wraps an adapter. A nil adapter uses memory.
func NewConversationStore(adapter store.Adapter) *ConversationStore {
	if adapter == nil {
		adapter = store.NewMemoryAdapter()
	}
	return &ConversationStore{adapter: adapter}
}

func threadKey(threadID string) string { return "thread:" + threadID }

// Load returns the conversation for a thread. The error wraps
// store.ErrKeyNotFound when the thread does not exist.
func (s *ConversationStore) Load(ctx context.Context, threadID string) (*Conversation, error) {
	conv, err := store.LoadJSON[*Conversation](ctx, s.adapter, threadKey(threadID))
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Save writes the conversation.
func (s *ConversationStore) Save(ctx context.Context, conv *Conversation) error {
	conv.UpdatedAt = time.Now().UTC()
	return store.SaveJSON(ctx, s.adapter, threadKey(conv.ThreadID), conv)
}

// Delete removes a thread.
func (s *ConversationStore) Delete(ctx context.Context, threadID string) error {
	return s.adapter.Delete(ctx, threadKey(threadID))
}

// Threads lists the ids of all stored threads.
func (s *ConversationStore) Threads(ctx context.Context) ([]string, error) {
	keys, err := s.adapter.Keys(ctx, "thread:")
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k[len("thread:"):]
	}
	return ids, nil
}

func (s *ConversationStore) loadOrCreate(ctx context.Context, threadID string) (*Conversation, error) {
	conv, err := s.Load(ctx, threadID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return newConversation(threadID), nil
	}
	return conv, err
}

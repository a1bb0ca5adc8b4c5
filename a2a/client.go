package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/spetersoncode/gatekeep/gate"
)

// Client is an A2A protocol client for calling remote agents.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// NewClient creates a new A2A client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RPCError is a JSON-RPC error returned by the remote agent.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

type clientRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// SendMessage sends a message to the remote agent and returns the task.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Task, error) {
	body, err := json.Marshal(clientRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  MethodSend,
		Params:  req,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, &RPCError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}

	var task Task
	if err := json.Unmarshal(rpcResp.Result, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	return &task, nil
}

// SendText sends a text message in the given context. An empty context id
// starts a new conversation.
func (c *Client) SendText(ctx context.Context, contextID, text string) (*Task, error) {
	msg := NewMessage(MessageRoleUser, NewTextPart(text))
	if contextID != "" {
		msg.ContextID = &contextID
	}
	return c.SendMessage(ctx, SendMessageRequest{Message: msg})
}

// Resolve answers the approval request of an input-required task.
func (c *Client) Resolve(ctx context.Context, task *Task, decision gate.Decision) (*Task, error) {
	req, ok := PendingApproval(task)
	if !ok {
		return nil, fmt.Errorf("a2a: task %s is not waiting for approval", task.ID)
	}
	msg := NewMessageWithContext(MessageRoleUser, task.ContextID, &task.ID, ApprovalPart(req.ToolCallID, decision))
	return c.SendMessage(ctx, SendMessageRequest{Message: msg})
}

// ApprovalRequest is the pending tool call of an input-required task.
type ApprovalRequest struct {
	ToolCallID  string
	ToolName    string
	Arguments   map[string]any
	Description string
}

// PendingApproval returns the approval request carried by an
// input-required task.
func PendingApproval(task *Task) (ApprovalRequest, bool) {
	if task == nil || task.Status.State != TaskStateInputRequired || task.Status.Message == nil {
		return ApprovalRequest{}, false
	}
	for _, part := range task.Status.Message.Parts {
		dp, ok := part.(DataPart)
		if !ok {
			continue
		}
		data, ok := dp.Data.(map[string]any)
		if !ok || data["type"] != DataTypeApprovalRequest {
			continue
		}
		req := ApprovalRequest{}
		req.ToolCallID, _ = data["toolCallId"].(string)
		req.ToolName, _ = data["toolName"].(string)
		req.Arguments, _ = data["arguments"].(map[string]any)
		req.Description, _ = data["description"].(string)
		return req, true
	}
	return ApprovalRequest{}, false
}

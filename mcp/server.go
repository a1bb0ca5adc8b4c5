package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
)

// Tool names exposed by the agent server.
const (
	SendMessageTool     = "send_message"
	ResolveApprovalTool = "resolve_approval"
	RetryTurnTool       = "retry_turn"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// TurnResult is the JSON body returned by the agent tools.
type TurnResult struct {
	ThreadID string        `json:"threadId"`
	Agent    string        `json:"agent,omitempty"`
	Answer   string        `json:"answer,omitempty"`
	Pending  *gate.Pending `json:"pending,omitempty"`
}

// NewServer creates an MCP server that drives an agent.
//
// Agent failures, including gate errors such as an already resolved call,
// are reported as tool results with IsError set rather than protocol errors,
// so the calling model can see and react to them.
func NewServer(a *agent.Agent, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "gatekeep",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(mcp.NewTool(SendMessageTool,
		mcp.WithDescription("Send a user message to the agent. The reply is either the agent's answer or a tool call waiting for approval."),
		mcp.WithString("threadId", mcp.Required(), mcp.Description("Conversation thread id")),
		mcp.WithString("message", mcp.Required(), mcp.Description("User message text")),
	), sendMessageHandler(a))

	s.AddTool(mcp.NewTool(ResolveApprovalTool,
		mcp.WithDescription("Approve or reject the tool call the agent is waiting on, then continue the turn."),
		mcp.WithString("threadId", mcp.Required(), mcp.Description("Conversation thread id")),
		mcp.WithString("callId", mcp.Required(), mcp.Description("Id of the pending tool call")),
		mcp.WithString("decision", mcp.Required(), mcp.Enum(string(gate.Approve), string(gate.Reject))),
	), resolveApprovalHandler(a))

	s.AddTool(mcp.NewTool(RetryTurnTool,
		mcp.WithDescription("Retry a turn that stopped because the model could not be reached."),
		mcp.WithString("threadId", mcp.Required(), mcp.Description("Conversation thread id")),
	), retryTurnHandler(a))

	return s
}

type toolHandler = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

func sendMessageHandler(a *agent.Agent) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		threadID, err := req.RequireString("threadId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := req.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return turnResult(a.Send(ctx, threadID, text))
	}
}

func resolveApprovalHandler(a *agent.Agent) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		threadID, err := req.RequireString("threadId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		callID, err := req.RequireString("callId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		decision, err := gate.ParseDecision(req.GetString("decision", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return turnResult(a.Resume(ctx, threadID, callID, decision))
	}
}

func retryTurnHandler(a *agent.Agent) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		threadID, err := req.RequireString("threadId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return turnResult(a.Retry(ctx, threadID))
	}
}

func turnResult(res *agent.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(TurnResult{
		ThreadID: res.ThreadID,
		Agent:    res.Agent,
		Answer:   res.Answer,
		Pending:  res.Pending,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ServeStdio starts an MCP server for the agent that communicates over
// stdin/stdout.
func ServeStdio(a *agent.Agent, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(a, opts...))
}

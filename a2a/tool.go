package a2a

import (
	"context"
	"errors"
	"fmt"

	"github.com/spetersoncode/gatekeep/tool"
)

// RemoteArgs is the input of a remote agent tool.
type RemoteArgs struct {
	Query string `json:"query" jsonschema:"The request to send to the remote agent"`
}

type remoteConfig struct {
	name        string
	description string
}

// RemoteToolOption configures a remote agent tool.
type RemoteToolOption func(*remoteConfig)

// WithToolName sets the tool name (default: "remote_agent").
func WithToolName(name string) RemoteToolOption {
	return func(c *remoteConfig) {
		c.name = name
	}
}

// WithToolDescription sets the tool description.
func WithToolDescription(desc string) RemoteToolOption {
	return func(c *remoteConfig) {
		c.description = desc
	}
}

// RemoteTool wraps a remote A2A agent as a tool. Each call starts a new
// remote conversation. A remote task that stops for approval is reported
// as a tool error, since the local user cannot answer the remote gate.
func RemoteTool(c *Client, opts ...RemoteToolOption) tool.Descriptor {
	cfg := &remoteConfig{
		name:        "remote_agent",
		description: "Send a request to a remote agent and return its answer.",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return tool.Func(cfg.name, cfg.description, func(ctx context.Context, args RemoteArgs) (string, error) {
		if args.Query == "" {
			return "", errors.New("query is required")
		}
		task, err := c.SendText(ctx, "", args.Query)
		if err != nil {
			return "", err
		}
		return taskOutcome(task)
	})
}

func taskOutcome(task *Task) (string, error) {
	var text string
	if task.Status.Message != nil {
		text = task.Status.Message.TextContent()
	}
	switch task.Status.State {
	case TaskStateCompleted:
		return text, nil
	case TaskStateInputRequired:
		if req, ok := PendingApproval(task); ok {
			return "", fmt.Errorf("remote agent is waiting for approval of %s", req.ToolName)
		}
		return "", errors.New("remote agent is waiting for input")
	default:
		if text == "" {
			text = string(task.Status.State)
		}
		return "", fmt.Errorf("remote agent task %s: %s", task.Status.State, text)
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/spetersoncode/gatekeep/tool"
)

// Remote is a connection to an MCP server whose tools the agent can call.
type Remote struct {
	client *client.Client
}

// NewStdioRemote starts an MCP server subprocess and connects to it.
func NewStdioRemote(ctx context.Context, command string, env []string, args ...string) (*Remote, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	return Connect(ctx, c)
}

// NewSSERemote connects to an MCP server over SSE.
func NewSSERemote(ctx context.Context, baseURL string) (*Remote, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSE MCP client: %w", err)
	}
	return Connect(ctx, c)
}

// Connect starts and initializes an existing MCP client.
func Connect(ctx context.Context, c *client.Client) (*Remote, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "gatekeep",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	return &Remote{client: c}, nil
}

// Close closes the connection to the MCP server.
func (r *Remote) Close() error {
	return r.client.Close()
}

// Descriptors lists the server's tools as descriptors whose handlers call
// back into the server. Arguments are validated locally against the
// advertised input schema before a call is sent.
func (r *Remote) Descriptors(ctx context.Context) ([]tool.Descriptor, error) {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	descs := make([]tool.Descriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		d, err := r.descriptor(t)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (r *Remote) descriptor(t mcp.Tool) (tool.Descriptor, error) {
	name := t.Name
	handler := func(ctx context.Context, args map[string]any) (string, error) {
		res, err := r.client.CallTool(ctx, mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: name, Arguments: args},
		})
		if err != nil {
			return "", err
		}
		text := resultText(res)
		if res.IsError {
			if text == "" {
				text = "remote tool reported an error"
			}
			return "", errors.New(text)
		}
		return text, nil
	}

	raw := rawInputSchema(t)
	d, err := tool.NewDescriptor(name, t.Description, inputSchema(raw), handler)
	if err == nil {
		return d, nil
	}

	// The schema cannot be resolved locally. Skip local validation but keep
	// advertising the server's schema to the model.
	d, err = tool.NewDescriptor(name, t.Description, nil, handler)
	if err != nil {
		return tool.Descriptor{}, err
	}
	if json.Valid(raw) {
		d.Tool.Parameters = raw
	}
	return d, nil
}

// rawInputSchema returns a tool's advertised input schema as JSON.
func rawInputSchema(t mcp.Tool) json.RawMessage {
	if len(t.RawInputSchema) > 0 {
		return t.RawInputSchema
	}
	data, err := json.Marshal(t.InputSchema)
	if err != nil {
		return nil
	}
	return data
}

// inputSchema decodes a raw input schema. It returns nil when the schema is
// absent or unreadable.
func inputSchema(raw json.RawMessage) *jsonschema.Schema {
	if len(raw) == 0 {
		return nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// resultText joins the text content of a tool result.
func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

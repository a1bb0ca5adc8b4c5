package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spetersoncode/gatekeep/gate"
)

func newTestServer(t *testing.T, policy *gate.Policy, calls *int) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewHandler(NewExecutor(newTestAgent(t, policy, calls)), logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAndHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("approve over JSON-RPC", func(t *testing.T) {
		var calls int
		srv := newTestServer(t, gate.Gate("calculate"), &calls)
		c := NewClient(srv.URL)

		task, err := c.SendText(ctx, "thread-1", "What is 2+2?")
		if err != nil {
			t.Fatalf("SendText: %v", err)
		}
		if task.Status.State != TaskStateInputRequired {
			t.Fatalf("expected input-required, got %s", task.Status.State)
		}
		req, ok := PendingApproval(task)
		if !ok || req.ToolName != "calculate" {
			t.Fatalf("unexpected approval request: %+v", req)
		}

		done, err := c.Resolve(ctx, task, gate.Approve)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if done.Status.State != TaskStateCompleted {
			t.Fatalf("expected completed, got %s", done.Status.State)
		}
		if !strings.Contains(done.Status.Message.TextContent(), "4") {
			t.Errorf("unexpected answer %q", done.Status.Message.TextContent())
		}

		_, err = c.Resolve(ctx, task, gate.Reject)
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) || rpcErr.Code != jsonRPCInvalidParams {
			t.Errorf("expected invalid params RPC error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("resolve requires an input-required task", func(t *testing.T) {
		c := NewClient("http://unused")
		_, err := c.Resolve(ctx, &Task{ID: "t", Status: NewTaskStatus(TaskStateCompleted, nil)}, gate.Approve)
		if err == nil {
			t.Error("expected error")
		}
	})

	t.Run("protocol errors", func(t *testing.T) {
		var calls int
		srv := newTestServer(t, nil, &calls)

		tests := []struct {
			name string
			body string
			code int
		}{
			{"parse error", `{`, jsonRPCParseError},
			{"bad version", `{"jsonrpc":"1.0","id":1,"method":"message/send"}`, jsonRPCInvalidRequest},
			{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"tasks/get"}`, jsonRPCMethodNotFound},
			{"bad params", `{"jsonrpc":"2.0","id":1,"method":"message/send","params":[]}`, jsonRPCInvalidParams},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, err := http.Post(srv.URL, "application/json", strings.NewReader(tt.body))
				if err != nil {
					t.Fatalf("post: %v", err)
				}
				defer resp.Body.Close()
				var out jsonRPCResponse
				if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if out.Error == nil || out.Error.Code != tt.code {
					t.Errorf("expected error code %d, got %+v", tt.code, out.Error)
				}
			})
		}

		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("legacy method name", func(t *testing.T) {
		var calls int
		srv := newTestServer(t, nil, &calls)

		body, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"method":  MethodSendLegacy,
			"params":  textRequest("legacy", "hi"),
		})
		resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer resp.Body.Close()
		var out jsonRPCResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Error != nil {
			t.Fatalf("unexpected error: %+v", out.Error)
		}
	})

	t.Run("stream", func(t *testing.T) {
		var calls int
		srv := newTestServer(t, nil, &calls)

		body, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      "1",
			"method":  MethodStream,
			"params":  textRequest("stream", "What is 2+2?"),
		})
		resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		defer resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("expected event stream, got %q", ct)
		}
		data, _ := io.ReadAll(resp.Body)
		out := string(data)
		if !strings.Contains(out, "event: artifact-update") {
			t.Errorf("expected artifact update in %s", out)
		}
		if !strings.Contains(out, `"state":"completed"`) {
			t.Errorf("expected completed status in %s", out)
		}
	})
}

func TestRemoteTool(t *testing.T) {
	ctx := context.Background()

	t.Run("returns remote answer", func(t *testing.T) {
		var calls int
		srv := newTestServer(t, nil, &calls)
		d := RemoteTool(NewClient(srv.URL), WithToolName("math_agent"), WithToolDescription("Ask the math agent"))

		if d.Name() != "math_agent" || d.Tool.Description != "Ask the math agent" {
			t.Errorf("unexpected tool %+v", d.Tool)
		}
		out, err := d.Handler(ctx, map[string]any{"query": "What is 2+2?"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "4") {
			t.Errorf("expected answer containing 4, got %q", out)
		}
	})

	t.Run("remote approval is an error", func(t *testing.T) {
		var calls int
		srv := newTestServer(t, gate.Gate("calculate"), &calls)
		d := RemoteTool(NewClient(srv.URL))

		_, err := d.Handler(ctx, map[string]any{"query": "What is 2+2?"})
		if err == nil || !strings.Contains(err.Error(), "waiting for approval of calculate") {
			t.Errorf("expected approval error, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no calls, got %d", calls)
		}
	})

	t.Run("requires query", func(t *testing.T) {
		d := RemoteTool(NewClient("http://unused"))
		if _, err := d.Handler(ctx, map[string]any{}); err == nil {
			t.Error("expected error for empty query")
		}
	})
}

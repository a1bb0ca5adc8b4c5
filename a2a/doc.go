// Package a2a exposes an agent over the A2A (Agent-to-Agent) protocol and
// lets an agent call remote A2A agents as tools.
//
// A2A uses JSON-RPC 2.0 over HTTP with optional Server-Sent Events. Each
// A2A context is a conversation thread. Human approval maps onto the
// input-required task state:
//
//  1. The client sends a text message. If the model asks for a gated tool,
//     the task comes back input-required with an approval_request data part
//     naming the tool call and its arguments.
//  2. The client answers on the same task with an approval data part:
//     {"type": "approval", "toolCallId": "...", "decision": "approve"}.
//  3. The turn continues and the task completes with the answer.
//
// # Serving
//
//	http.Handle("/a2a", a2a.NewHandler(a2a.NewExecutor(myAgent), logger))
//
// # Calling a remote agent
//
//	c := a2a.NewClient("https://agents.example.com/a2a")
//	task, err := c.SendText(ctx, "", "What is 2+2?")
//	if req, ok := a2a.PendingApproval(task); ok {
//	    fmt.Println("approve", req.ToolName, req.Arguments)
//	    task, err = c.Resolve(ctx, task, gate.Approve)
//	}
//
// The Mapper is not safe for concurrent use; create one per task.
package a2a

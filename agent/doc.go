// Package agent runs tool-calling conversations whose tool calls can be held
// for human approval.
//
// An [Agent] is built from an explicit [Config]. Each conversation is keyed
// by a thread id and moves through a small state machine:
//
//	awaiting_input -> model_thinking -> tool_gate_check -> executing_tool
//	                        ^                 |                  |
//	                        |                 v                  |
//	                        |       suspended_for_approval       |
//	                        +------------------------------------+
//
// [Agent.Send] appends a user message and drives the loop until the model
// answers or a gated tool call needs a decision. In the second case the
// returned [Result] carries the pending request and the conversation is
// persisted in suspended_for_approval. [Agent.Resume] applies the decision:
// an approved call runs, a rejected call is reported to the model as
// declined, and the loop continues.
//
//	res, err := a.Send(ctx, "thread-1", "What is 2+2?")
//	if err != nil {
//	    return err
//	}
//	for res.Suspended() {
//	    decision := ask(res.Pending) // gate.Approve or gate.Reject
//	    res, err = a.Resume(ctx, "thread-1", res.Pending.CallID, decision)
//	    if err != nil {
//	        return err
//	    }
//	}
//	fmt.Println(res.Answer)
//
// # Errors
//
// Tool failures never end a turn: unknown tools, bad arguments and callable
// errors are appended as error tool results for the model to handle. A
// failed model query ends the turn with a [*ModelQueryError]; the
// conversation keeps every completed step and [Agent.Retry] re-runs the query.
//
// # Observers
//
// Lifecycle events are delivered to the configured [Observer] and to any
// observer attached to the call's context with [WithObserver].
//
// # Handoffs
//
// An agent configured with Handoffs offers the model one transfer_to_<name>
// tool per specialist. Calling it hands the rest of the turn to that
// specialist's prompt, tools and approval policy.
package agent

// Package agui maps agent lifecycle events onto the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an event-based protocol that standardizes
// how agents talk to user-facing applications. This package converts the
// events emitted by an agent.Agent into AG-UI events and parses approval
// decisions coming back from the frontend. It does not provide transport;
// cmd/serve streams the events over SSE.
//
// # Usage
//
//	mapper := agui.NewMapper(threadID, runID)
//	write(mapper.RunStarted())
//
//	ctx = agent.WithObserver(ctx, mapper.Observer(write))
//	res, err := a.Send(ctx, threadID, text)
//	if err != nil {
//	    write(mapper.RunError(err))
//	    return
//	}
//	write(mapper.RunFinished())
//
// # Event Mapping
//
//   - model query start/end → STEP_STARTED / STEP_FINISHED ("model_query:<n>")
//   - tool call detected → TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END
//   - tool executed → TOOL_CALL_RESULT
//   - suspended / resumed → STEP_STARTED / STEP_FINISHED ("approval:<call id>")
//   - handoff → STEP_STARTED and STEP_FINISHED ("handoff:<agent>")
//   - turn complete → TEXT_MESSAGE_START, TEXT_MESSAGE_CONTENT, TEXT_MESSAGE_END
//
// # Approvals
//
// The frontend answers a suspension with {"toolCallId": "...", "decision":
// "approve"}. [ApprovalInput.ToDecision] accepts only "approve" and "reject".
package agui

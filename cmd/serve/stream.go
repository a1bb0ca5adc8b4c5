package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/google/uuid"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/agui"
	"github.com/spetersoncode/gatekeep/gate"
)

// turnStream writes AG-UI events for one turn. Headers are sent with the
// first event, so a turn rejected before anything happens can still answer
// with a plain status code.
type turnStream struct {
	ctx     context.Context
	w       http.ResponseWriter
	flusher http.Flusher
	mapper  *agui.Mapper
	log     *slog.Logger

	started bool
	sent    int
	err     error
}

func (s *turnStream) send(ev aguievents.Event) {
	if s.err != nil {
		return
	}
	if !s.started {
		s.started = true
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.write(s.mapper.RunStarted())
	}
	s.write(ev)
}

func (s *turnStream) write(ev aguievents.Event) {
	if s.err != nil {
		return
	}
	s.sent++
	s.log.Debug("sending SSE event", "event_type", ev.Type(), "event_num", s.sent)
	if err := writeSSE(s.w, s.flusher, ev); err != nil {
		s.log.Error("failed to write SSE event", "error", err, "event_type", ev.Type())
		s.err = err
	}
}

// stream runs a turn and forwards its agent events as SSE.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, threadID string, run func(*turnStream) (*agent.Result, error)) {
	start := time.Now()

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	mapper := agui.NewMapper(threadID, "")
	log := h.logger.With(
		"request_id", uuid.NewString(),
		"method", r.Method,
		"path", r.URL.Path,
		"thread_id", threadID,
		"run_id", mapper.RunID(),
	)
	s := &turnStream{w: w, flusher: flusher, mapper: mapper, log: log}
	s.ctx = agent.WithObserver(r.Context(), mapper.Observer(s.send))

	log.Info("request started")
	res, err := run(s)
	if err != nil && !s.started {
		log.Warn("request rejected", "error", err)
		writeError(w, err)
		return
	}

	if err != nil {
		s.send(mapper.RunError(err))
	} else {
		if conv, cerr := h.agent.Conversation(r.Context(), threadID); cerr == nil {
			s.send(aguievents.NewMessagesSnapshotEvent(agui.FromMessages(conv.Messages)))
		}
		s.send(mapper.RunFinished())
	}

	attrs := []any{
		"duration_ms", time.Since(start).Milliseconds(),
		"events_sent", s.sent,
	}
	switch {
	case s.err != nil:
		log.Error("request failed", append(attrs, "error", s.err)...)
	case err != nil:
		log.Warn("turn failed", append(attrs, "error", err)...)
	case res.Suspended():
		log.Info("request suspended", append(attrs, "call_id", res.Pending.CallID, "tool", res.Pending.ToolName)...)
	default:
		log.Info("request completed", attrs...)
	}
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), string(data)); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	flusher.Flush()
	return nil
}

// statusOf maps agent and gate errors to HTTP status codes. Model failures
// never reach it: the stream is already open by then and they end the run
// with RUN_ERROR.
func statusOf(err error) int {
	switch {
	case errors.Is(err, agent.ErrThreadNotFound):
		return http.StatusNotFound
	case errors.Is(err, gate.ErrInvalidDecision), errors.Is(err, gate.ErrDecisionNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, gate.ErrAlreadyResolved),
		errors.Is(err, gate.ErrUnknownCallID),
		errors.Is(err, agent.ErrApprovalPending),
		errors.Is(err, agent.ErrTurnIncomplete),
		errors.Is(err, agent.ErrNothingToRetry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(err))
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

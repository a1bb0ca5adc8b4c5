package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
)

// JSON-RPC methods served by Handler. The tasks/* names are accepted for
// older clients.
const (
	MethodSend            = "message/send"
	MethodStream          = "message/stream"
	MethodSendLegacy      = "tasks/send"
	MethodSubscribeLegacy = "tasks/sendSubscribe"
)

// JSON-RPC error codes
const (
	jsonRPCParseError     = -32700
	jsonRPCInvalidRequest = -32600
	jsonRPCMethodNotFound = -32601
	jsonRPCInvalidParams  = -32602
	jsonRPCInternalError  = -32603
)

// jsonRPCRequest represents a JSON-RPC 2.0 request.
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// jsonRPCResponse represents a JSON-RPC 2.0 response.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

// jsonRPCError represents a JSON-RPC 2.0 error.
type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Handler serves A2A JSON-RPC requests for an Executor.
type Handler struct {
	executor *Executor
	logger   *slog.Logger
}

// NewHandler creates a handler. A nil logger uses slog.Default.
func NewHandler(executor *Executor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{executor: executor, logger: logger}
}

// ServeHTTP handles A2A protocol requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid JSON-RPC request", "error", err)
		writeError(w, nil, jsonRPCParseError, "Parse error: "+err.Error())
		return
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, jsonRPCInvalidRequest, "Invalid JSON-RPC version")
		return
	}

	log := h.logger.With("method", req.Method, "id", req.ID)

	var params SendMessageRequest
	switch req.Method {
	case MethodSend, MethodSendLegacy, MethodStream, MethodSubscribeLegacy:
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.Warn("invalid params", "error", err)
			writeError(w, req.ID, jsonRPCInvalidParams, "Invalid params: "+err.Error())
			return
		}
	default:
		log.Warn("unknown method")
		writeError(w, req.ID, jsonRPCMethodNotFound, "Method not found: "+req.Method)
		return
	}

	if req.Method == MethodStream || req.Method == MethodSubscribeLegacy {
		h.handleStream(w, r, params, log, start)
		return
	}

	task, err := h.executor.Execute(r.Context(), params)
	if err != nil {
		log.Warn("request failed", "error", err)
		writeError(w, req.ID, errorCode(err), err.Error())
		return
	}
	writeResult(w, req.ID, task)
	log.Info("A2A request completed",
		"task_id", task.ID,
		"context_id", task.ContextID,
		"status", task.Status.State,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, params SendMessageRequest, log *slog.Logger, start time.Time) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var eventCount int
	for evt := range h.executor.ExecuteStream(r.Context(), params) {
		data, err := json.Marshal(evt)
		if err != nil {
			log.Error("failed to marshal event", "error", err)
			continue
		}
		eventType := "message"
		switch evt.(type) {
		case TaskStatusUpdateEvent:
			eventType = "status-update"
		case TaskArtifactUpdateEvent:
			eventType = "artifact-update"
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
			log.Error("failed to write SSE event", "error", err)
			return
		}
		flusher.Flush()
		eventCount++
	}

	log.Info("A2A streaming request completed",
		"duration_ms", time.Since(start).Milliseconds(),
		"events_sent", eventCount,
	)
}

// errorCode maps request errors to JSON-RPC codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, gate.ErrInvalidDecision),
		errors.Is(err, gate.ErrDecisionNotAllowed),
		errors.Is(err, gate.ErrUnknownCallID),
		errors.Is(err, gate.ErrAlreadyResolved),
		errors.Is(err, agent.ErrThreadNotFound),
		errors.Is(err, agent.ErrApprovalPending),
		errors.Is(err, agent.ErrTurnIncomplete):
		return jsonRPCInvalidParams
	default:
		return jsonRPCInternalError
	}
}

func writeResult(w http.ResponseWriter, id any, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		writeError(w, id, jsonRPCInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jsonRPCResponse{JSONRPC: "2.0", ID: id, Result: data})
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonRPCError{Code: code, Message: message},
	})
}

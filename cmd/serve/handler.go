package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/gatekeep/a2a"
	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/agui"
	"github.com/spetersoncode/gatekeep/gate"
)

// Handler serves the thread endpoints for one agent.
type Handler struct {
	agent  *agent.Agent
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates the HTTP handler with CORS applied to every route.
func NewHandler(a *agent.Agent, logger *slog.Logger) http.Handler {
	h := &Handler{agent: a, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /threads/{id}/messages", h.handleMessage)
	h.mux.HandleFunc("POST /threads/{id}/approvals", h.handleApproval)
	h.mux.HandleFunc("POST /threads/{id}/retry", h.handleRetry)
	h.mux.HandleFunc("GET /threads/{id}", h.handleThread)
	h.mux.HandleFunc("GET /health", healthHandler)
	h.mux.Handle("POST /a2a", a2a.NewHandler(a2a.NewExecutor(a), logger))
	return corsMiddleware(h.mux)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "Invalid request body: message is required", http.StatusBadRequest)
		return
	}

	h.stream(w, r, threadID, func(s *turnStream) (*agent.Result, error) {
		return h.agent.Send(s.ctx, threadID, req.Message)
	})
}

func (h *Handler) handleApproval(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	input, err := agui.ParseApprovalInput(body)
	if err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	decision, err := input.ToDecision()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.stream(w, r, threadID, func(s *turnStream) (*agent.Result, error) {
		return h.agent.Resume(s.ctx, threadID, input.ToolCallID, decision)
	})
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	h.stream(w, r, threadID, func(s *turnStream) (*agent.Result, error) {
		return h.agent.Retry(s.ctx, threadID)
	})
}

// threadResponse is the JSON view of a conversation.
type threadResponse struct {
	ThreadID string               `json:"threadId"`
	State    agent.State          `json:"state"`
	Messages []aguievents.Message `json:"messages"`
	Pending  *gate.Pending        `json:"pending,omitempty"`
	Resolved []gate.Outcome       `json:"resolved,omitempty"`
	Updated  time.Time            `json:"updatedAt"`
}

func (h *Handler) handleThread(w http.ResponseWriter, r *http.Request) {
	conv, err := h.agent.Conversation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := threadResponse{
		ThreadID: conv.ThreadID,
		State:    conv.State,
		Messages: agui.FromMessages(conv.Messages),
		Resolved: conv.Approvals.Outcomes(),
		Updated:  conv.UpdatedAt,
	}
	if p, ok := conv.Pending(); ok {
		resp.Pending = &p
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

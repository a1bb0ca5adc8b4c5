// Command serve exposes a gated agent over HTTP, streaming each turn as
// AG-UI events over Server-Sent Events.
//
// Endpoints:
//
//	POST /threads/{id}/messages   {"message": "..."}                     run a turn
//	POST /threads/{id}/approvals  {"toolCallId": "...", "decision": "approve"}  resolve and continue
//	POST /threads/{id}/retry                                             retry a failed turn
//	GET  /threads/{id}                                                   conversation snapshot
//	POST /a2a                                                            A2A JSON-RPC (message/send, message/stream)
//	GET  /health
//
// A turn that stops on a gated tool call ends its stream with the approval
// step open; the frontend answers it on the approvals endpoint.
//
// Usage:
//
//	GATEKEEP_PROVIDER=anthropic go run ./cmd/serve
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/internal/app"
	"github.com/spetersoncode/gatekeep/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	deps, err := app.New(context.Background(), cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Setup error: %v", err)
	}
	defer deps.Close()

	a, err := deps.Agent(agent.Config{
		Name:         "Assistant",
		SystemPrompt: app.SystemPrompt,
		Observer:     agent.NewLogObserver(deps.Logger),
	})
	if err != nil {
		log.Fatalf("Agent error: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewHandler(a, deps.Logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		deps.Logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("shutdown error", "error", err)
		}
	}()

	deps.Logger.Info("server starting",
		"addr", cfg.Addr,
		"provider", cfg.ProviderName(),
		"tools", deps.Tools.Names(),
		"gated", deps.Policy.Tools(),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
	deps.Logger.Info("server stopped")
}

// Command handoff runs a triage agent that routes each request to a
// language specialist.
//
// The triage agent has no tools of its own. It answers by handing off to
// the English or Spanish expert, which keep the full tool set and the
// approval policy. Approvals are granted automatically here so the sample
// requests run unattended; use cmd/chat for an interactive gate.
//
// Usage:
//
//	go run ./cmd/handoff
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/internal/app"
	"github.com/spetersoncode/gatekeep/internal/config"
	"github.com/spetersoncode/gatekeep/tool"
)

var requests = []string{
	"What's the weather like in Boston today?",
	"¿Cuánto es 15 por 4?",
	"Can you tell me the stock price of ACME and explain what it means?",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()
	deps, err := app.New(ctx, cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Setup error: %v", err)
	}
	defer deps.Close()

	triage, err := buildAgents(deps)
	if err != nil {
		log.Fatalf("Agent error: %v", err)
	}

	for _, req := range requests {
		fmt.Printf("User: %s\n", req)
		res, err := runUnattended(ctx, triage, uuid.NewString(), req)
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			continue
		}
		fmt.Printf("%s: %s\n\n", res.Agent, res.Answer)
	}
}

func buildAgents(deps *app.App) (*agent.Agent, error) {
	observer := agent.NewLogObserver(deps.Logger)

	english, err := deps.Agent(agent.Config{
		Name:         "English Expert",
		Description:  "Handles requests written in English.",
		SystemPrompt: "You answer in English. " + app.SystemPrompt,
		Observer:     observer,
	})
	if err != nil {
		return nil, err
	}

	spanish, err := deps.Agent(agent.Config{
		Name:         "Spanish Expert",
		Description:  "Handles requests written in Spanish.",
		SystemPrompt: "Respondes siempre en español. Usa las herramientas disponibles cuando ayuden.",
		Observer:     observer,
	})
	if err != nil {
		return nil, err
	}

	return deps.Agent(agent.Config{
		Name:         "Triage",
		SystemPrompt: "Decide which specialist should handle the request based on its language and hand it off. Do not answer yourself.",
		Tools:        tool.NewRegistry(),
		Observer:     observer,
		Handoffs:     []*agent.Agent{english, spanish},
	})
}

// runUnattended sends a message and approves every gated call until the
// turn completes.
func runUnattended(ctx context.Context, a *agent.Agent, threadID, text string) (*agent.Result, error) {
	res, err := a.Send(ctx, threadID, text)
	for err == nil && res.Suspended() {
		fmt.Printf("  auto-approving %s\n", res.Pending.Description)
		res, err = a.Resume(ctx, threadID, res.Pending.CallID, gate.Approve)
	}
	return res, err
}

// Command mcp serves a gated agent over MCP stdio.
//
// MCP clients talk to the agent with three tools: send_message,
// resolve_approval and retry_turn. A send_message result either carries the
// answer or a pending tool call that must be resolved before the thread can
// continue. Logs go to stderr so they never mix with the protocol stream.
//
// Configuration for an MCP client:
//
//	{
//	    "mcpServers": {
//	        "gatekeep": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/gatekeep"
//	        }
//	    }
//	}
package main

import (
	"context"
	"log"
	"os"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/internal/app"
	"github.com/spetersoncode/gatekeep/internal/config"
	"github.com/spetersoncode/gatekeep/mcp"
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

	if err := mcp.ServeStdio(a,
		mcp.WithName("gatekeep"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		deps.Logger.Error("mcp server stopped", "error", err)
	}
}

// Package mcp connects the agent to the Model Context Protocol in both
// directions.
//
//   - Server: expose an [agent.Agent] to MCP clients. Clients send messages
//     with the send_message tool and answer approval requests with
//     resolve_approval, so the human gate stays in the loop.
//   - Remote: connect to an MCP server and turn its tools into
//     [tool.Descriptor] values. Remote tools are registered like local ones
//     and go through the same approval policy.
//
// # Serving an agent
//
//	a := agent.MustNew(agent.Config{Model: c, Tools: registry, Policy: policy})
//	if err := mcp.ServeStdio(a, mcp.WithName("gatekeep")); err != nil {
//	    log.Fatal(err)
//	}
//
// # Using remote tools
//
//	remote, err := mcp.NewStdioRemote(ctx, "./weather-server", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer remote.Close()
//
//	descs, err := remote.Descriptors(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	registry := tool.NewRegistry().Add(descs...)
package mcp

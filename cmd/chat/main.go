// Command chat is an interactive terminal session with a gated agent.
//
// Tool calls that the approval policy gates are shown with their arguments
// and wait for "approve" or "reject" before the turn continues.
//
// Configuration is read from the environment (and a .env file if present):
//
//	GATEKEEP_PROVIDER  - anthropic, openai or google (default: google)
//	GATEKEEP_MODEL     - model override
//	GATEKEEP_POLICY    - YAML approval policy (default gates calculate and web_search)
//	GATEKEEP_STORE     - SQLite file for conversations (default: in memory)
//	GATEKEEP_LOG_LEVEL - debug, info, warn or error
//
// Usage:
//
//	go run ./cmd/chat
//	go run ./cmd/chat -thread my-session
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/spetersoncode/gatekeep/agent"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/internal/app"
	"github.com/spetersoncode/gatekeep/internal/config"
)

func main() {
	threadID := flag.String("thread", "", "thread id to continue (default: new thread)")
	flag.Parse()

	if err := run(*threadID); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(threadID string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps, err := app.New(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer deps.Close()

	a, err := deps.Agent(agent.Config{
		Name:         "Assistant",
		SystemPrompt: app.SystemPrompt,
		Observer:     agent.NewLogObserver(deps.Logger),
	})
	if err != nil {
		return err
	}

	if threadID == "" {
		threadID = uuid.NewString()
	}
	s := &session{
		agent:    a,
		threadID: threadID,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	fmt.Fprintf(s.out, "Thread %s. Tools: %s\n", threadID, strings.Join(deps.Tools.Names(), ", "))
	fmt.Fprintf(s.out, "Gated: %s. Type q to quit, /retry after a failed turn.\n\n", strings.Join(deps.Policy.Tools(), ", "))
	return s.loop(ctx)
}

type session struct {
	agent    *agent.Agent
	threadID string
	in       *bufio.Reader
	out      io.Writer
}

func (s *session) loop(ctx context.Context) error {
	if res, err := s.resumePending(ctx); err != nil || res != nil {
		if err := s.handle(ctx, res, err); err != nil {
			return endOfInput(err)
		}
	}

	for {
		line, err := s.prompt("You: ")
		if err != nil {
			return endOfInput(err)
		}

		var res *agent.Result
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		case "/retry":
			res, err = s.agent.Retry(ctx, s.threadID)
		default:
			res, err = s.agent.Send(ctx, s.threadID, line)
		}
		if err := s.handle(ctx, res, err); err != nil {
			return endOfInput(err)
		}
	}
}

// endOfInput treats a closed stdin as a normal exit.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// resumePending picks up an approval left open by an earlier session on the
// same thread.
func (s *session) resumePending(ctx context.Context) (*agent.Result, error) {
	conv, err := s.agent.Conversation(ctx, s.threadID)
	if errors.Is(err, agent.ErrThreadNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, ok := conv.Pending()
	if !ok {
		return nil, nil
	}
	return &agent.Result{ThreadID: s.threadID, Pending: &p}, nil
}

// handle prints a turn's outcome and keeps asking for decisions while the
// turn stays suspended.
func (s *session) handle(ctx context.Context, res *agent.Result, err error) error {
	for {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(s.out, "Error:", err)
			if errors.Is(err, agent.ErrModelQuery) {
				fmt.Fprintln(s.out, "Type /retry to try the turn again.")
			}
			return nil
		}
		if !res.Suspended() {
			fmt.Fprintf(s.out, "%s: %s\n\n", label(res), res.Answer)
			return nil
		}

		var decision gate.Decision
		decision, err = s.askDecision(res.Pending)
		if err != nil {
			return err
		}
		res, err = s.agent.Resume(ctx, s.threadID, res.Pending.CallID, decision)
	}
}

func (s *session) askDecision(p *gate.Pending) (gate.Decision, error) {
	fmt.Fprintf(s.out, "\nApproval needed: %s\n", p.Description)
	for k, v := range p.Arguments {
		fmt.Fprintf(s.out, "  %s: %v\n", k, v)
	}
	for {
		line, err := s.prompt("approve or reject? ")
		if err != nil {
			return "", err
		}
		d, err := gate.ParseDecision(line)
		if err == nil {
			return d, nil
		}
		fmt.Fprintln(s.out, "Please answer approve or reject.")
	}
}

func (s *session) prompt(p string) (string, error) {
	fmt.Fprint(s.out, p)
	line, err := s.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func label(res *agent.Result) string {
	if res.Agent == "" {
		return "Assistant"
	}
	return res.Agent
}

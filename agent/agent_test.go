package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/gatekeep"
	"github.com/spetersoncode/gatekeep/gate"
	"github.com/spetersoncode/gatekeep/store"
	"github.com/spetersoncode/gatekeep/tool"
)

// mockProvider implements ai.ChatProvider for testing. It returns the
// scripted responses in order, then falls back to respond if set.
type mockProvider struct {
	responses []mockResponse
	respond   func(messages []ai.Message) mockResponse
	callCount int
	requests  [][]ai.Message
	options   []*ai.Options
}

type mockResponse struct {
	content   string
	toolCalls []ai.ToolCall
	err       error
}

func (m *mockProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	m.requests = append(m.requests, append([]ai.Message(nil), messages...))
	m.options = append(m.options, ai.ApplyOptions(opts...))

	var resp mockResponse
	switch {
	case m.callCount < len(m.responses):
		resp = m.responses[m.callCount]
	case m.respond != nil:
		resp = m.respond(messages)
	default:
		resp = mockResponse{content: "No more responses"}
	}
	m.callCount++

	if resp.err != nil {
		return nil, resp.err
	}
	return &ai.Response{
		Content:   resp.content,
		ToolCalls: resp.toolCalls,
		Usage:     ai.Usage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

// answerFromToolResult plays the model's second step: it reads the latest
// tool result and answers from it.
func answerFromToolResult(messages []ai.Message) mockResponse {
	last := messages[len(messages)-1]
	if last.Role != ai.RoleTool || len(last.ToolResults) == 0 {
		return mockResponse{content: "Nothing to report."}
	}
	r := last.ToolResults[0]
	if r.IsError {
		return mockResponse{content: "I could not run the calculation."}
	}
	_, value, _ := strings.Cut(r.Content, "= ")
	return mockResponse{content: "The answer is " + value + "."}
}

func calcCall(id, expression string) ai.ToolCall {
	return ai.ToolCall{ID: id, Name: "calculate", Arguments: `{"expression":"` + expression + `"}`}
}

// countingCalculator is a calculate tool that records how often it ran.
func countingCalculator(calls *int) tool.Descriptor {
	return tool.Func("calculate", "Evaluate arithmetic", func(ctx context.Context, args tool.CalculateArgs) (string, error) {
		*calls++
		v, err := tool.Evaluate(args.Expression)
		if err != nil {
			return "", err
		}
		return args.Expression + " = " + tool.FormatNumber(v), nil
	})
}

func newCalcAgent(t *testing.T, provider *mockProvider, calls *int, adapter store.Adapter) *Agent {
	t.Helper()
	a, err := New(Config{
		Model:        provider,
		Tools:        tool.NewRegistry().Add(countingCalculator(calls), tool.Weather()),
		Policy:       gate.Gate("calculate"),
		Store:        adapter,
		SystemPrompt: "You are a helpful assistant.",
	})
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	t.Run("requires model", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		a, err := New(Config{Model: &mockProvider{}})
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxSteps, a.cfg.MaxSteps)
		assert.NotNil(t, a.cfg.Logger)
	})

	t.Run("handoff targets need names", func(t *testing.T) {
		unnamed := MustNew(Config{Model: &mockProvider{}})
		_, err := New(Config{Model: &mockProvider{}, Handoffs: []*Agent{unnamed}})
		assert.Error(t, err)
	})

	t.Run("handoff names must not collide with tools", func(t *testing.T) {
		target := MustNew(Config{Name: "math", Model: &mockProvider{}})
		clash := tool.Func("transfer_to_math", "", func(ctx context.Context, args tool.CalculateArgs) (string, error) { return "", nil })
		_, err := New(Config{Model: &mockProvider{}, Tools: tool.NewRegistry().Add(clash), Handoffs: []*Agent{target}})
		assert.Error(t, err)
	})
}

func TestSendPlainTurns(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{responses: []mockResponse{
		{content: "Hello! How can I help?"},
		{content: "Paris is the capital of France."},
	}}
	calls := 0
	a := newCalcAgent(t, provider, &calls, nil)

	res, err := a.Send(ctx, "t1", "Hi")
	require.NoError(t, err)
	assert.False(t, res.Suspended())
	assert.Equal(t, "Hello! How can I help?", res.Answer)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, 10, res.Usage.InputTokens)

	res, err = a.Send(ctx, "t1", "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", res.Answer)

	conv, err := a.Conversation(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, []ai.Role{ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant},
		[]ai.Role{conv.Messages[0].Role, conv.Messages[1].Role, conv.Messages[2].Role, conv.Messages[3].Role})
	assert.Equal(t, "Hi", conv.Messages[0].Content)
	assert.Equal(t, "What is the capital of France?", conv.Messages[2].Content)
	assert.Equal(t, StateAwaitingInput, conv.State)

	t.Run("system prompt is sent but not stored", func(t *testing.T) {
		require.Len(t, provider.requests, 2)
		second := provider.requests[1]
		assert.Equal(t, ai.RoleSystem, second[0].Role)
		assert.Len(t, second, 4)
	})

	t.Run("tools are offered", func(t *testing.T) {
		require.Len(t, provider.options[0].Tools, 2)
		assert.Equal(t, "calculate", provider.options[0].Tools[0].Name)
	})

	assert.Zero(t, calls)
}

func TestGatedCalculatorScenario(t *testing.T) {
	ctx := context.Background()
	script := func() *mockProvider {
		return &mockProvider{
			responses: []mockResponse{{toolCalls: []ai.ToolCall{calcCall("call-1", "2+2")}}},
			respond:   answerFromToolResult,
		}
	}

	t.Run("suspends with the pending request", func(t *testing.T) {
		calls := 0
		a := newCalcAgent(t, script(), &calls, nil)

		res, err := a.Send(ctx, "t1", "What is 2+2?")
		require.NoError(t, err)
		require.True(t, res.Suspended())

		assert.Equal(t, "call-1", res.Pending.CallID)
		assert.Equal(t, "calculate", res.Pending.ToolName)
		assert.Equal(t, map[string]any{"expression": "2+2"}, res.Pending.Arguments)
		assert.Empty(t, res.Answer)
		assert.Zero(t, calls, "gated tool must not run before approval")

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, StateSuspended, conv.State)
		p, ok := conv.Pending()
		require.True(t, ok)
		assert.Equal(t, "call-1", p.CallID)
	})

	t.Run("approve runs the tool", func(t *testing.T) {
		calls := 0
		a := newCalcAgent(t, script(), &calls, nil)

		res, err := a.Send(ctx, "t1", "What is 2+2?")
		require.NoError(t, err)
		require.True(t, res.Suspended())

		res, err = a.Resume(ctx, "t1", res.Pending.CallID, gate.Approve)
		require.NoError(t, err)
		assert.False(t, res.Suspended())
		assert.Contains(t, res.Answer, "4")
		assert.Equal(t, 1, calls)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingInput, conv.State)
		// user, assistant(tool call), tool result, assistant
		require.Len(t, conv.Messages, 4)
		assert.Equal(t, ai.RoleTool, conv.Messages[2].Role)
		assert.Equal(t, "2+2 = 4", conv.Messages[2].ToolResults[0].Content)
	})

	t.Run("reject never runs the tool", func(t *testing.T) {
		calls := 0
		a := newCalcAgent(t, script(), &calls, nil)

		res, err := a.Send(ctx, "t1", "What is 2+2?")
		require.NoError(t, err)
		require.True(t, res.Suspended())

		res, err = a.Resume(ctx, "t1", res.Pending.CallID, gate.Reject)
		require.NoError(t, err)
		assert.False(t, res.Suspended())
		assert.False(t, regexp.MustCompile(`\d`).MatchString(res.Answer), "answer %q has a numeric result", res.Answer)
		assert.Zero(t, calls)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		declined := conv.Messages[2].ToolResults[0]
		assert.True(t, declined.IsError)
		assert.Equal(t, DeclinedMessage, declined.Content)
		assert.Equal(t, "call-1", declined.ToolCallID)
	})

	t.Run("reject leaves the conversation continuable", func(t *testing.T) {
		calls := 0
		provider := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{calcCall("call-1", "2+2")}},
			{content: "Okay, I will not calculate it."},
			{content: "Sure, anything else?"},
		}}
		a := newCalcAgent(t, provider, &calls, nil)

		res, err := a.Send(ctx, "t1", "What is 2+2?")
		require.NoError(t, err)
		_, err = a.Resume(ctx, "t1", res.Pending.CallID, gate.Reject)
		require.NoError(t, err)

		res, err = a.Send(ctx, "t1", "Never mind")
		require.NoError(t, err)
		assert.Equal(t, "Sure, anything else?", res.Answer)
	})
}

func TestResumeErrors(t *testing.T) {
	ctx := context.Background()
	setup := func(t *testing.T) (*Agent, *gate.Pending, *int) {
		calls := 0
		provider := &mockProvider{
			responses: []mockResponse{{toolCalls: []ai.ToolCall{calcCall("call-1", "2+2")}}},
			respond:   answerFromToolResult,
		}
		a := newCalcAgent(t, provider, &calls, nil)
		res, err := a.Send(ctx, "t1", "What is 2+2?")
		require.NoError(t, err)
		require.True(t, res.Suspended())
		return a, res.Pending, &calls
	}

	t.Run("second resolve is rejected", func(t *testing.T) {
		a, pending, calls := setup(t)

		_, err := a.Resume(ctx, "t1", pending.CallID, gate.Approve)
		require.NoError(t, err)

		_, err = a.Resume(ctx, "t1", pending.CallID, gate.Approve)
		assert.ErrorIs(t, err, gate.ErrAlreadyResolved)
		_, err = a.Resume(ctx, "t1", pending.CallID, gate.Reject)
		assert.ErrorIs(t, err, gate.ErrAlreadyResolved)
		assert.Equal(t, 1, *calls)
	})

	t.Run("unknown call id leaves state unchanged", func(t *testing.T) {
		a, pending, calls := setup(t)

		_, err := a.Resume(ctx, "t1", "call-404", gate.Approve)
		assert.ErrorIs(t, err, gate.ErrUnknownCallID)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, StateSuspended, conv.State)
		assert.Zero(t, *calls)

		_, err = a.Resume(ctx, "t1", pending.CallID, gate.Approve)
		assert.NoError(t, err)
	})

	t.Run("invalid decision leaves state unchanged", func(t *testing.T) {
		a, pending, calls := setup(t)

		_, err := a.Resume(ctx, "t1", pending.CallID, gate.Decision("maybe"))
		assert.ErrorIs(t, err, gate.ErrInvalidDecision)
		assert.Zero(t, *calls)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, StateSuspended, conv.State)
	})

	t.Run("unknown thread", func(t *testing.T) {
		a, _, _ := setup(t)
		_, err := a.Resume(ctx, "nope", "call-1", gate.Approve)
		assert.ErrorIs(t, err, ErrThreadNotFound)

		_, err = a.Conversation(ctx, "nope")
		assert.ErrorIs(t, err, ErrThreadNotFound)
	})

	t.Run("send while suspended", func(t *testing.T) {
		a, _, _ := setup(t)
		_, err := a.Send(ctx, "t1", "hello?")
		assert.ErrorIs(t, err, ErrApprovalPending)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		assert.Len(t, conv.Messages, 2)
	})
}

func TestUngatedAndFailingTools(t *testing.T) {
	ctx := context.Background()

	t.Run("ungated tool runs immediately", func(t *testing.T) {
		provider := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{{ID: "w1", Name: "get_weather", Arguments: `{"location":"Seoul"}`}}},
			{content: "It is sunny in Seoul."},
		}}
		calls := 0
		a := newCalcAgent(t, provider, &calls, nil)

		res, err := a.Send(ctx, "t1", "Weather in Seoul?")
		require.NoError(t, err)
		assert.False(t, res.Suspended())
		assert.Equal(t, "It is sunny in Seoul.", res.Answer)
		assert.Equal(t, 2, res.Steps)

		toolMsg := provider.requests[1][len(provider.requests[1])-1]
		require.Equal(t, ai.RoleTool, toolMsg.Role)
		assert.Contains(t, toolMsg.ToolResults[0].Content, "Seoul")
	})

	t.Run("tool errors are surfaced to the model", func(t *testing.T) {
		provider := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{
				{ID: "x1", Name: "launch_rockets", Arguments: `{}`},
				{ID: "x2", Name: "get_weather", Arguments: `{"city":"Seoul"}`},
				{ID: "x3", Name: "get_weather", Arguments: `{not json`},
			}},
			{content: "Those tools failed."},
		}}
		calls := 0
		a := newCalcAgent(t, provider, &calls, nil)

		res, err := a.Send(ctx, "t1", "Do things")
		require.NoError(t, err)
		assert.Equal(t, "Those tools failed.", res.Answer)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		var results []ai.ToolResult
		for _, m := range conv.Messages {
			results = append(results, m.ToolResults...)
		}
		require.Len(t, results, 3)
		assert.Contains(t, results[0].Content, "not found")
		assert.Contains(t, results[1].Content, "invalid arguments")
		assert.Contains(t, results[2].Content, "invalid arguments")
		for _, r := range results {
			assert.True(t, r.IsError)
		}
	})

	t.Run("ungated calls before a gated one run first", func(t *testing.T) {
		provider := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{
				{ID: "w1", Name: "get_weather", Arguments: `{"location":"Seoul"}`},
				calcCall("c1", "6*7"),
			}},
			{content: "Sunny, and 6*7 is 42."},
		}}
		calls := 0
		a := newCalcAgent(t, provider, &calls, nil)

		res, err := a.Send(ctx, "t1", "Weather and math")
		require.NoError(t, err)
		require.True(t, res.Suspended())
		assert.Equal(t, "c1", res.Pending.CallID)

		conv, err := a.Conversation(ctx, "t1")
		require.NoError(t, err)
		require.Len(t, conv.Messages, 3)
		assert.Equal(t, "w1", conv.Messages[2].ToolResults[0].ToolCallID)

		res, err = a.Resume(ctx, "t1", "c1", gate.Approve)
		require.NoError(t, err)
		assert.Equal(t, "Sunny, and 6*7 is 42.", res.Answer)
		assert.Equal(t, 1, calls)
	})

	t.Run("missing call ids are assigned", func(t *testing.T) {
		provider := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{{Name: "calculate", Arguments: `{"expression":"1+1"}`}}},
		}}
		calls := 0
		a := newCalcAgent(t, provider, &calls, nil)

		res, err := a.Send(ctx, "t1", "1+1?")
		require.NoError(t, err)
		require.True(t, res.Suspended())
		assert.True(t, strings.HasPrefix(res.Pending.CallID, "call_"))
	})
}

func TestModelQueryFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("upstream unavailable")
	provider := &mockProvider{responses: []mockResponse{
		{err: boom},
		{content: "Recovered."},
	}}
	calls := 0
	a := newCalcAgent(t, provider, &calls, nil)

	_, err := a.Send(ctx, "t1", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelQuery)
	assert.ErrorIs(t, err, boom)

	var qerr *ModelQueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "t1", qerr.ThreadID)
	assert.Equal(t, 1, qerr.Step)

	conv, err := a.Conversation(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StateModelThinking, conv.State)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "Hello", conv.Messages[0].Content)

	_, err = a.Send(ctx, "t1", "Hello again")
	assert.ErrorIs(t, err, ErrTurnIncomplete)

	res, err := a.Retry(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Recovered.", res.Answer)
	assert.Equal(t, 1, res.Steps)

	_, err = a.Retry(ctx, "t1")
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestMaxSteps(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{respond: func(messages []ai.Message) mockResponse {
		return mockResponse{toolCalls: []ai.ToolCall{{Name: "get_weather", Arguments: `{"location":"Seoul"}`}}}
	}}
	a, err := New(Config{
		Model:    provider,
		Tools:    tool.NewRegistry().Add(tool.Weather()),
		MaxSteps: 3,
	})
	require.NoError(t, err)

	_, err = a.Send(ctx, "t1", "loop forever")
	assert.ErrorIs(t, err, ErrMaxSteps)
	assert.Equal(t, 3, provider.callCount)

	conv, err := a.Conversation(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, conv.State)
}

func TestPersistenceAcrossAgents(t *testing.T) {
	ctx := context.Background()
	adapter := store.NewMemoryAdapter()
	calls := 0

	first := newCalcAgent(t, &mockProvider{
		responses: []mockResponse{{toolCalls: []ai.ToolCall{calcCall("call-1", "2+2")}}},
	}, &calls, adapter)
	res, err := first.Send(ctx, "t1", "What is 2+2?")
	require.NoError(t, err)
	require.True(t, res.Suspended())

	second := newCalcAgent(t, &mockProvider{respond: answerFromToolResult}, &calls, adapter)
	res, err = second.Resume(ctx, "t1", "call-1", gate.Approve)
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "4")
	assert.Equal(t, 1, calls)

	ids, err := second.Conversations().Threads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids)
}

func TestObserverEvents(t *testing.T) {
	ctx := context.Background()
	var configured, scoped []EventType

	provider := &mockProvider{
		responses: []mockResponse{{toolCalls: []ai.ToolCall{calcCall("call-1", "2+2")}}},
		respond:   answerFromToolResult,
	}
	calls := 0
	a, err := New(Config{
		Model:  provider,
		Tools:  tool.NewRegistry().Add(countingCalculator(&calls)),
		Policy: gate.Gate("calculate"),
		Observer: ObserverFunc(func(ctx context.Context, e Event) {
			assert.Equal(t, "t1", e.ThreadID)
			assert.False(t, e.Timestamp.IsZero())
			configured = append(configured, e.Type)
		}),
	})
	require.NoError(t, err)

	ctx = WithObserver(ctx, ObserverFunc(func(ctx context.Context, e Event) {
		scoped = append(scoped, e.Type)
	}))

	res, err := a.Send(ctx, "t1", "What is 2+2?")
	require.NoError(t, err)
	_, err = a.Resume(ctx, "t1", res.Pending.CallID, gate.Approve)
	require.NoError(t, err)

	want := []EventType{
		EventModelQueryStart,
		EventModelQueryEnd,
		EventToolCallDetected,
		EventSuspended,
		EventResumed,
		EventToolExecuted,
		EventModelQueryStart,
		EventModelQueryEnd,
		EventTurnComplete,
	}
	assert.Equal(t, want, configured)
	assert.Equal(t, want, scoped)
}

func TestObservers(t *testing.T) {
	var got []string
	obs := Observers(
		ObserverFunc(func(ctx context.Context, e Event) { got = append(got, "a:"+string(e.Type)) }),
		nil,
		ObserverFunc(func(ctx context.Context, e Event) { got = append(got, "b:"+string(e.Type)) }),
	)
	obs.OnEvent(context.Background(), Event{Type: EventHandoff})
	assert.Equal(t, []string{"a:handoff", "b:handoff"}, got)
}

func TestHandoff(t *testing.T) {
	ctx := context.Background()

	spanishModel := &mockProvider{responses: []mockResponse{{content: "Hola, ¿cómo estás?"}}}
	spanish := MustNew(Config{
		Name:         "Spanish Expert",
		Description:  "Translates text into Spanish.",
		Model:        spanishModel,
		SystemPrompt: "You translate into Spanish.",
	})
	english := MustNew(Config{
		Name:        "English Expert",
		Description: "Translates text into English.",
		Model:       &mockProvider{},
	})

	triageModel := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{{ID: "h1", Name: "transfer_to_spanish_expert"}}},
		{content: "The sky is blue because of Rayleigh scattering."},
	}}
	triage, err := New(Config{
		Name:         "Triage",
		Model:        triageModel,
		SystemPrompt: "Route translation requests.",
		Handoffs:     []*Agent{english, spanish},
	})
	require.NoError(t, err)

	res, err := triage.Send(ctx, "t1", "Translate 'Hello, how are you?' into Spanish")
	require.NoError(t, err)
	assert.Equal(t, "Spanish Expert", res.Agent)
	assert.Equal(t, "Hola, ¿cómo estás?", res.Answer)

	require.Len(t, triageModel.options[0].Tools, 2)
	assert.Equal(t, "transfer_to_english_expert", triageModel.options[0].Tools[0].Name)

	require.Len(t, spanishModel.requests, 1)
	assert.Equal(t, "You translate into Spanish.", spanishModel.requests[0][0].Content)

	// The next turn starts with the root agent again.
	res, err = triage.Send(ctx, "t1", "Why is the sky blue?")
	require.NoError(t, err)
	assert.Equal(t, "Triage", res.Agent)
	assert.Contains(t, res.Answer, "Rayleigh")
}

func TestConcurrentThreads(t *testing.T) {
	const threads, sends = 8, 5
	ctx := context.Background()

	// Every thread's first query waits until all threads have reached the
	// model, so the test only finishes if threads run in parallel.
	var (
		mu      sync.Mutex
		started = map[string]bool{}
		all     = make(chan struct{})
	)
	model := ai.ChatFunc(func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
		text := messages[len(messages)-1].Content
		thread, _, _ := strings.Cut(text, "/")

		mu.Lock()
		first := !started[thread]
		started[thread] = true
		if first && len(started) == threads {
			close(all)
		}
		mu.Unlock()

		if first {
			select {
			case <-all:
			case <-time.After(5 * time.Second):
				return nil, errors.New("threads did not run in parallel")
			}
		}
		return &ai.Response{Content: "echo " + text}, nil
	})

	a, err := New(Config{Model: model})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, threads*sends)
	for i := range threads {
		thread := fmt.Sprintf("t%d", i)
		for j := range sends {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := a.Send(ctx, thread, fmt.Sprintf("%s/%d", thread, j)); err != nil {
					errs <- err
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i := range threads {
		thread := fmt.Sprintf("t%d", i)
		conv, err := a.Conversation(ctx, thread)
		require.NoError(t, err)
		require.Len(t, conv.Messages, 2*sends, thread)

		seen := map[string]bool{}
		for k := 0; k < len(conv.Messages); k += 2 {
			user, reply := conv.Messages[k], conv.Messages[k+1]
			assert.Equal(t, ai.RoleUser, user.Role)
			assert.Equal(t, ai.RoleAssistant, reply.Role)
			assert.True(t, strings.HasPrefix(user.Content, thread+"/"), user.Content)
			assert.Equal(t, "echo "+user.Content, reply.Content)
			seen[user.Content] = true
		}
		assert.Len(t, seen, sends)
		assert.Equal(t, StateAwaitingInput, conv.State)
	}
}

func TestHandoffToolName(t *testing.T) {
	assert.Equal(t, "transfer_to_englishexpert", HandoffToolName("EnglishExpert"))
	assert.Equal(t, "transfer_to_spanish_expert", HandoffToolName("Spanish Expert"))
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := NewLogObserver(logger)
	ctx := context.Background()

	call := calcCall("call-1", "2+2")
	obs.OnEvent(ctx, Event{Type: EventSuspended, ThreadID: "t1", Step: 1, ToolCall: &call})
	obs.OnEvent(ctx, Event{Type: EventModelQueryEnd, ThreadID: "t1", Step: 2, Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=suspended")
	assert.Contains(t, out, "tool=calculate")
	assert.Contains(t, out, "call_id=call-1")
	assert.Contains(t, out, "level=ERROR msg=model_query_end")
	assert.Contains(t, out, "error=boom")
}

package reasoning

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/format"
	"github.com/blackhat-7/reactor/internal/tt"
	"github.com/blackhat-7/reactor/toolchain"
)

var fixedClock = reactor.NewMockTimeProvider(time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC))

func TestEngine_Propose_SelectsBackend(t *testing.T) {
	owui := tt.NewMockBackend().WithName("owui").Repeat().AddResponse(tt.AnswerText("", "from owui"), 10, 2)
	gemini := tt.NewMockBackend().WithName("gemini").Repeat().AddResponse(tt.AnswerText("", "from gemini"), 20, 4)

	engine := NewEngine(testRegistry()).
		WithBackend("owui", owui).
		WithBackend("gemini", gemini)

	tests := []struct {
		selector    string
		wantAnswer  string
		wantBackend string
		wantErr     error
	}{
		{selector: "", wantAnswer: "from owui", wantBackend: "owui"},
		{selector: "owui", wantAnswer: "from owui", wantBackend: "owui"},
		{selector: "gemini", wantAnswer: "from gemini", wantBackend: "gemini"},
		{selector: "claude", wantErr: reactor.ErrReasoningBackend},
	}

	for _, tc := range tests {
		t.Run("selector="+tc.selector, func(t *testing.T) {
			proposal, err := engine.Propose(context.Background(), "task", nil,
				reactor.AgentConfig{ModelSelector: tc.selector})

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, proposal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, reactor.Finish{Answer: tc.wantAnswer}, proposal.Decision)
			assert.Equal(t, tc.wantBackend, proposal.Backend)
		})
	}

	assert.Equal(t, []string{"gemini", "owui"}, engine.Selectors())
}

func TestEngine_Propose_WithDefault(t *testing.T) {
	a := tt.NewMockBackend().WithName("a").AddResponse(tt.AnswerText("", "a"), 0, 0)
	b := tt.NewMockBackend().WithName("b").AddResponse(tt.AnswerText("", "b"), 0, 0)
	engine := NewEngine(testRegistry()).WithBackend("a", a).WithBackend("b", b).WithDefault("b")

	proposal, err := engine.Propose(context.Background(), "task", nil, reactor.AgentConfig{})

	require.NoError(t, err)
	assert.Equal(t, "b", proposal.Backend)
	assert.Equal(t, 0, a.CallCount())
}

func TestEngine_Propose_BackendSwapKeepsParsing(t *testing.T) {
	reply := tt.ActionText("Look it up.", "search", map[string]any{"query": "foo"})
	first := tt.NewMockBackend().WithName("first").AddResponse(reply, 1, 1)
	second := tt.NewMockBackend().WithName("second").AddResponse(reply, 1, 1)
	engine := NewEngine(testRegistry()).WithBackend("first", first).WithBackend("second", second)

	p1, err := engine.Propose(context.Background(), "task", nil, reactor.AgentConfig{ModelSelector: "first"})
	require.NoError(t, err)
	p2, err := engine.Propose(context.Background(), "task", nil, reactor.AgentConfig{ModelSelector: "second"})
	require.NoError(t, err)

	assert.Equal(t, p1.Decision, p2.Decision)
	assert.Equal(t, p1.Thought, p2.Thought)
	assert.Equal(t, first.CapturedRequests[0].Prompt, second.CapturedRequests[0].Prompt)
}

func TestEngine_Propose_Request(t *testing.T) {
	backend := tt.NewMockBackend().AddResponse(tt.AnswerText("", "ok"), 123, 45)
	engine := NewEngine(testRegistry()).WithBackend("mock", backend).WithTimeProvider(fixedClock)

	proposal, err := engine.Propose(context.Background(), "What is new in Go?", nil, reactor.AgentConfig{
		Model:       "llama3.1:8b",
		Temperature: 0.3,
	})

	require.NoError(t, err)
	assert.Equal(t, reactor.Usage{InputTokens: 123, OutputTokens: 45}, proposal.Usage)

	require.Len(t, backend.CapturedRequests, 1)
	req := backend.CapturedRequests[0]
	assert.Equal(t, "llama3.1:8b", req.Model)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Contains(t, req.Prompt, "<task>\nWhat is new in Go?\n</task>")
	assert.Contains(t, req.System, "- search:")
	assert.Contains(t, req.System, "<action>")
	assert.Contains(t, req.System, "Today is 2025-02-15 (Saturday).")
}

func TestEngine_Propose_Errors(t *testing.T) {
	transportErr := errors.New("502 bad gateway")

	tests := []struct {
		name    string
		backend *tt.MockBackend
		wantErr []error
	}{
		{
			name:    "transport failure",
			backend: tt.NewMockBackend().AddError(transportErr),
			wantErr: []error{reactor.ErrReasoningBackend, transportErr},
		},
		{
			name: "typed backend error kept",
			backend: tt.NewMockBackend().AddError(&reactor.ReasoningBackendError{
				Backend: "owui", Detail: "rate limited",
			}),
			wantErr: []error{reactor.ErrReasoningBackend},
		},
		{
			name:    "malformed reply",
			backend: tt.NewMockBackend().AddResponse("I would rather chat.", 1, 1),
			wantErr: []error{reactor.ErrMalformedDecision},
		},
		{
			name:    "unknown tool",
			backend: tt.NewMockBackend().AddResponse(tt.ActionText("", "rm", nil), 1, 1),
			wantErr: []error{reactor.ErrMalformedDecision, reactor.ErrUnknownTool},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(testRegistry()).WithBackend("mock", tc.backend)
			proposal, err := engine.Propose(context.Background(), "task", nil, reactor.AgentConfig{})

			assert.Nil(t, proposal)
			for _, want := range tc.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestEngine_Propose_BackendNameInError(t *testing.T) {
	engine := NewEngine(testRegistry()).
		WithBackend("x", tt.NewMockBackend().WithName("ollama").AddError(errors.New("connection refused")))

	_, err := engine.Propose(context.Background(), "task", nil, reactor.AgentConfig{})

	var backendErr *reactor.ReasoningBackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "ollama", backendErr.Backend)
	assert.Equal(t, "connection refused", backendErr.Detail)
}

func TestEngine_Propose_HonorsContext(t *testing.T) {
	engine := NewEngine(testRegistry()).WithBackend("mock", tt.NewMockBackend().AddBlock())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := engine.Propose(ctx, "task", nil, reactor.AgentConfig{})

	assert.ErrorIs(t, err, reactor.ErrReasoningBackend)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func sampleTranscript() reactor.Transcript {
	return reactor.Transcript{
		reactor.ReasoningStep{
			Thought:  "Search first.",
			Decision: reactor.NewAct("search", map[string]any{"query": "foo", "limit": 3, "after": "2024"}),
		},
		reactor.ToolCall{ID: "c1", Name: "search", Args: map[string]any{"query": "foo"}},
		reactor.ToolResult{ID: "c1", Name: "search", Output: "raw", Status: reactor.ToolSucceeded},
		reactor.Observation{ID: "c1", Text: "three results"},
		reactor.ReasoningStep{
			Thought:  "Read the first one.",
			Decision: reactor.NewAct("scrape", map[string]any{"url": "https://go.dev"}),
		},
		reactor.ToolCall{ID: "c2", Name: "scrape", Args: map[string]any{"url": "https://go.dev"}},
		reactor.ToolResult{ID: "c2", Name: "scrape", Status: reactor.ToolFailed},
		reactor.Observation{ID: "c2", Text: "tool scrape failed: timeout"},
	}
}

func TestEngine_BuildPrompt_Deterministic(t *testing.T) {
	engine := NewEngine(testRegistry()).WithTimeProvider(fixedClock)

	first, err := engine.BuildPrompt("task", sampleTranscript())
	require.NoError(t, err)
	second, err := engine.BuildPrompt("task", sampleTranscript())
	require.NoError(t, err)

	assert.Equal(t, first, second)

	user := first.User
	assert.Contains(t, user, `{"tool":"search","args":{"after":"2024","limit":3,"query":"foo"}}`)
	assert.Contains(t, user, "<observation>\nResult of search:\nthree results\n</observation>")
	assert.Contains(t, user, "<observation>\nResult of scrape:\ntool scrape failed: timeout\n</observation>")
	assert.True(t, strings.HasSuffix(user, "Continue with your next step."))

	order := []string{"<task>", "Search first.", "three results", "Read the first one.", "tool scrape failed"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(user, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
}

func TestEngine_BuildPrompt_EmptyTranscript(t *testing.T) {
	engine := NewEngine(testRegistry())

	prompt, err := engine.BuildPrompt("Summarize this", nil)

	require.NoError(t, err)
	assert.Equal(t, "<task>\nSummarize this\n</task>", prompt.User)
}

func TestEngine_BuildPrompt_NoTools(t *testing.T) {
	engine := NewEngine(toolchain.NewRegistry()).WithBehavior("You are a summarizer.")

	prompt, err := engine.BuildPrompt("text", nil)

	require.NoError(t, err)
	assert.NotContains(t, prompt.System, "<action>")
	assert.Contains(t, prompt.System, "<answer>")
	assert.Contains(t, prompt.System, "No tools are available.")
	assert.True(t, strings.HasPrefix(prompt.System, "<behavior>\nYou are a summarizer.\n</behavior>"))
}

func TestEngine_BuildPrompt_Markdown(t *testing.T) {
	engine := NewEngine(testRegistry()).WithFormat(format.NewMarkdown())

	prompt, err := engine.BuildPrompt("task", sampleTranscript()[:4])

	require.NoError(t, err)
	assert.Contains(t, prompt.User, "# task\ntask")
	assert.Contains(t, prompt.User, "# observation\nResult of search:\nthree results")
	assert.Contains(t, prompt.System, "# action")
}

func TestEngine_Fork(t *testing.T) {
	backend := tt.NewMockBackend()
	base := NewEngine(testRegistry()).WithBackend("mock", backend)

	forked := base.Fork(toolchain.NewRegistry()).WithBehavior("summarizer")

	p1, err := base.BuildPrompt("t", nil)
	require.NoError(t, err)
	p2, err := forked.BuildPrompt("t", nil)
	require.NoError(t, err)

	assert.NotContains(t, p1.System, "summarizer")
	assert.Contains(t, p2.System, "summarizer")
	assert.Contains(t, p1.System, "- search:")
	assert.NotContains(t, p2.System, "- search:")

	got, err := forked.Backend("")
	require.NoError(t, err)
	assert.Same(t, backend, got)
}

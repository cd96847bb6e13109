package tt

import (
	"context"
	"errors"
	"sync"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/toolchain"
)

// -----------------------------------------------------------------------------
// MockBackend - implements reactor.Backend with queued replies
// -----------------------------------------------------------------------------

// MockBackend returns queued replies in order. Once the queue is drained it repeats
// the last reply when Repeat is set, and fails otherwise.
type MockBackend struct {
	mu        sync.Mutex
	name      string
	replies   []mockReply
	repeat    bool
	callCount int

	// CapturedRequests stores every request passed to Complete.
	CapturedRequests []*reactor.CompletionRequest
}

type mockReply struct {
	text  string
	usage reactor.Usage
	err   error
	block bool
}

// ErrScriptExhausted is returned when a mock runs out of queued replies.
var ErrScriptExhausted = errors.New("mock script exhausted")

// NewMockBackend creates a MockBackend named "mock".
func NewMockBackend() *MockBackend {
	return &MockBackend{name: "mock"}
}

// WithName sets the backend name.
func (m *MockBackend) WithName(name string) *MockBackend {
	m.name = name
	return m
}

// Repeat makes the last queued reply answer every further call.
func (m *MockBackend) Repeat() *MockBackend {
	m.repeat = true
	return m
}

// AddResponse queues a reply with token counts.
func (m *MockBackend) AddResponse(text string, inputTokens, outputTokens int) *MockBackend {
	m.replies = append(m.replies, mockReply{
		text:  text,
		usage: reactor.Usage{InputTokens: inputTokens, OutputTokens: outputTokens},
	})
	return m
}

// AddError queues a failure.
func (m *MockBackend) AddError(err error) *MockBackend {
	m.replies = append(m.replies, mockReply{err: err})
	return m
}

// AddBlock queues a call that blocks until its context ends.
func (m *MockBackend) AddBlock() *MockBackend {
	m.replies = append(m.replies, mockReply{block: true})
	return m
}

// CallCount returns how many times Complete was called.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Name implements reactor.Backend.
func (m *MockBackend) Name() string {
	return m.name
}

// Complete implements reactor.Backend.
func (m *MockBackend) Complete(
	ctx context.Context,
	req *reactor.CompletionRequest,
) (*reactor.Completion, error) {
	m.mu.Lock()
	m.CapturedRequests = append(m.CapturedRequests, req)
	idx := m.callCount
	m.callCount++
	if idx >= len(m.replies) {
		if !m.repeat || len(m.replies) == 0 {
			m.mu.Unlock()
			return nil, ErrScriptExhausted
		}
		idx = len(m.replies) - 1
	}
	reply := m.replies[idx]
	m.mu.Unlock()

	if reply.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &reactor.Completion{Text: reply.text, Usage: reply.usage}, nil
}

// Compile-time check that MockBackend implements reactor.Backend.
var _ reactor.Backend = (*MockBackend)(nil)

// -----------------------------------------------------------------------------
// ScriptedProposer - proposes queued decisions without a model
// -----------------------------------------------------------------------------

// ScriptedProposer returns queued proposals in order, repeating the last one when the
// queue is drained. It records the transcript length seen by every call.
type ScriptedProposer struct {
	mu     sync.Mutex
	steps  []scriptedStep
	calls  int
	blocks bool

	// SeenTranscripts holds a copy of the transcript passed to each call.
	SeenTranscripts []reactor.Transcript
}

type scriptedStep struct {
	proposal *reactor.Proposal
	err      error
}

// NewScriptedProposer creates an empty ScriptedProposer.
func NewScriptedProposer() *ScriptedProposer {
	return &ScriptedProposer{}
}

// Act queues a single-call Act.
func (p *ScriptedProposer) Act(tool string, args map[string]any) *ScriptedProposer {
	return p.Decide(reactor.NewAct(tool, args))
}

// Finish queues a Finish.
func (p *ScriptedProposer) Finish(answer string) *ScriptedProposer {
	return p.Decide(reactor.Finish{Answer: answer})
}

// Decide queues an arbitrary decision.
func (p *ScriptedProposer) Decide(d reactor.StepDecision) *ScriptedProposer {
	p.steps = append(p.steps, scriptedStep{proposal: &reactor.Proposal{
		Decision: d,
		Backend:  "scripted",
		Usage:    reactor.Usage{InputTokens: 10, OutputTokens: 5},
	}})
	return p
}

// Fail queues an error.
func (p *ScriptedProposer) Fail(err error) *ScriptedProposer {
	p.steps = append(p.steps, scriptedStep{err: err})
	return p
}

// Block makes every call wait for its context to end.
func (p *ScriptedProposer) Block() *ScriptedProposer {
	p.blocks = true
	return p
}

// Calls returns how many times Propose was called.
func (p *ScriptedProposer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Propose implements agent.Proposer.
func (p *ScriptedProposer) Propose(
	ctx context.Context,
	task string,
	transcript reactor.Transcript,
	cfg reactor.AgentConfig,
) (*reactor.Proposal, error) {
	p.mu.Lock()
	p.SeenTranscripts = append(p.SeenTranscripts, transcript.Clone())
	idx := p.calls
	p.calls++
	p.mu.Unlock()

	if p.blocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if len(p.steps) == 0 {
		return nil, ErrScriptExhausted
	}
	if idx >= len(p.steps) {
		idx = len(p.steps) - 1
	}
	step := p.steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	out := *step.proposal
	return &out, nil
}

// -----------------------------------------------------------------------------
// Tools
// -----------------------------------------------------------------------------

// ToolCallRecord is one invocation seen by a recording tool.
type ToolCallRecord struct {
	Tool string
	Args map[string]any
}

// ToolRecorder collects invocations of the tools it builds.
type ToolRecorder struct {
	mu    sync.Mutex
	calls []ToolCallRecord
}

// Calls returns the recorded invocations in the order they happened.
func (r *ToolRecorder) Calls() []ToolCallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ToolCallRecord(nil), r.calls...)
}

func (r *ToolRecorder) record(tool string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ToolCallRecord{Tool: tool, Args: args})
}

// Tool builds a tool that records its calls and delegates to fn. The tool accepts any
// arguments.
func (r *ToolRecorder) Tool(
	name string,
	fn func(ctx context.Context, args map[string]any) (string, error),
) toolchain.ToolSpec {
	return toolchain.ToolSpec{
		Name:        name,
		Description: "test tool " + name,
		Parameters: map[string]any{
			"type": "object",
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			r.record(name, args)
			return fn(ctx, args)
		},
	}
}

// Static returns a handler that always returns output.
func Static(output string) func(context.Context, map[string]any) (string, error) {
	return func(context.Context, map[string]any) (string, error) {
		return output, nil
	}
}

// Failing returns a handler that always fails with err.
func Failing(err error) func(context.Context, map[string]any) (string, error) {
	return func(context.Context, map[string]any) (string, error) {
		return "", err
	}
}

// Hanging returns a handler that waits for its context to end.
func Hanging() func(context.Context, map[string]any) (string, error) {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

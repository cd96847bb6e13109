package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/agent"
	"github.com/blackhat-7/reactor/internal/tt"
	"github.com/blackhat-7/reactor/reasoning"
	"github.com/blackhat-7/reactor/toolchain"
)

func newTestSession(backend *tt.MockBackend) *chatSession {
	tools := toolchain.NewRegistry()
	engine := reasoning.NewEngine(tools).WithBackend("mock", backend)
	return &chatSession{
		loop:        agent.NewLoop(engine, tools),
		cfg:         reactor.AgentConfig{MaxIterations: 2, TotalTimeout: time.Minute},
		maxMessages: 4,
	}
}

func TestChatSession_KeepsHistory(t *testing.T) {
	backend := tt.NewMockBackend().
		AddResponse("<answer>Hi there</answer>", 10, 2).
		AddResponse("<answer>Your name is Sam</answer>", 20, 3)
	session := newTestSession(backend)

	first := session.send(context.Background(), "Hello, I'm Sam")
	second := session.send(context.Background(), "What is my name?")

	require.True(t, first.Succeeded())
	require.True(t, second.Succeeded())
	assert.Equal(t, "Your name is Sam", second.Answer)

	require.Len(t, backend.CapturedRequests, 2)
	prompt := backend.CapturedRequests[1].Prompt
	assert.Contains(t, prompt, "user:\nHello, I'm Sam\nassistant:\nHi there\nuser(most_recent):\nWhat is my name?\n")
	assert.Len(t, session.history, 4)
}

func TestChatSession_FailedRunIsForgotten(t *testing.T) {
	backend := tt.NewMockBackend().AddError(errors.New("connection refused"))
	session := newTestSession(backend)

	result := session.send(context.Background(), "Hello")

	assert.Equal(t, reactor.StatusReasoningError, result.Status)
	assert.Empty(t, session.history)
}

func TestChatSession_TrimsHistory(t *testing.T) {
	backend := tt.NewMockBackend().AddResponse("<answer>ok</answer>", 1, 1).Repeat()
	session := newTestSession(backend)

	for _, msg := range []string{"one", "two", "three"} {
		require.True(t, session.send(context.Background(), msg).Succeeded())
	}

	require.Len(t, session.history, 4)
	assert.Equal(t, message{role: "user", content: "two"}, session.history[0])
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	tests := []struct {
		name     string
		args     []string
		file     string
		stdin    string
		expected string
		wantErr  bool
	}{
		{name: "args win", args: []string{"a", "b"}, file: path, stdin: "in", expected: "a b"},
		{name: "file", file: path, stdin: "in", expected: "from file"},
		{name: "stdin", stdin: "piped text", expected: "piped text"},
		{name: "blank", stdin: "  \n", wantErr: true},
		{name: "missing file", file: filepath.Join(t.TempDir(), "nope"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := readInput(tc.args, tc.file, strings.NewReader(tc.stdin))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
		})
	}
}

func TestProgressHook(t *testing.T) {
	var buf bytes.Buffer
	hook := newProgressHook(&buf)

	hook.OnAfterIteration(context.Background(), reactor.AfterIterationEvent{
		Iteration: 1,
		Backend:   "owui",
		Decision:  reactor.NewAct("web_search", map[string]any{"queries": []string{"go"}}),
	})
	hook.OnAfterToolCall(context.Background(), reactor.AfterToolCallEvent{
		Result: reactor.ToolResult{Name: "web_search", Output: "result   text", Status: reactor.ToolSucceeded},
	})
	hook.OnAfterToolCall(context.Background(), reactor.AfterToolCallEvent{
		Result: reactor.ToolResult{Name: "web_scrape", Status: reactor.ToolFailed, Err: errors.New("404")},
	})

	out := buf.String()
	assert.Contains(t, out, "[Step 1 via owui")
	assert.Contains(t, out, `web_search`+colorReset+` {"queries":["go"]}`)
	assert.Contains(t, out, "13 chars")
	assert.Contains(t, out, "result text")
	assert.Contains(t, out, "web_scrape failed")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &reactor.RunResult{
		Status: reactor.StatusIterationLimitExceeded,
		Err:    reactor.ErrIterationLimitExceeded,
	})
	assert.Contains(t, buf.String(), "Run ended with IterationLimitExceeded")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b", excerpt(" a\n b ", 10))
	assert.Equal(t, "héll...", excerpt("héllo", 4))
}

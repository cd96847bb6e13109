// Package task runs single-step language tasks, such as summarization, through the
// agent loop.
//
// A single-step task is an agent run with no tools and one reasoning call. Prompt
// building, parsing and error classification are the loop's own.
package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/agent"
	"github.com/blackhat-7/reactor/hooks"
	"github.com/blackhat-7/reactor/reasoning"
	"github.com/blackhat-7/reactor/toolchain"
)

// SummarizerBehavior is the persona of the summarization task. A reply without an
// answer section is malformed, so the persona asks for one explicitly.
const SummarizerBehavior = "You are a summarizer. You summarize everything perfectly, " +
	"keeping all the important details and removing unnecessary information. " +
	"Always put the summary inside <answer></answer>, never as plain text."

// SummaryPrefix is placed before the text to summarize.
const SummaryPrefix = "Summarize the following text:\n\n"

// Adapter runs single-step tasks.
type Adapter struct {
	loop     *agent.Loop
	prefix   string
	defaults reactor.AgentConfig
}

// NewAdapter creates a summarization adapter. It forks engine with an empty tool
// registry, so a reply calling a tool is malformed.
func NewAdapter(engine *reasoning.Engine) *Adapter {
	tools := toolchain.NewRegistry()
	return &Adapter{
		loop:   agent.NewLoop(engine.Fork(tools).WithBehavior(SummarizerBehavior), tools),
		prefix: SummaryPrefix,
	}
}

// WithDefaults sets the config used by [Adapter.Summarize].
func (a *Adapter) WithDefaults(cfg reactor.AgentConfig) *Adapter {
	a.defaults = cfg
	return a
}

// WithPrefix replaces the instruction placed before the input text.
func (a *Adapter) WithPrefix(prefix string) *Adapter {
	a.prefix = prefix
	return a
}

// WithLogger sets the logger of the underlying loop.
func (a *Adapter) WithLogger(logger *slog.Logger) *Adapter {
	a.loop.WithLogger(logger)
	return a
}

// WithHooks sets the hook registry of the underlying loop.
func (a *Adapter) WithHooks(h *hooks.Registry) *Adapter {
	a.loop.WithHooks(h)
	return a
}

// RunSingleStep issues exactly one reasoning call for the prefixed text and returns
// the answer. cfg.MaxIterations is forced to 1.
//
// The returned error wraps the error that ended the run, so errors.Is works with the
// reactor sentinels (a tool call reply gives [reactor.ErrMalformedDecision]).
func (a *Adapter) RunSingleStep(ctx context.Context, text string, cfg reactor.AgentConfig) (string, error) {
	cfg.MaxIterations = 1
	result := a.loop.Run(ctx, a.prefix+text, cfg)
	if !result.Succeeded() {
		return "", fmt.Errorf("single step task %s: %w", result.Status, result.Err)
	}
	return result.Answer, nil
}

// Summarize runs RunSingleStep with the adapter's default config.
func (a *Adapter) Summarize(ctx context.Context, text string) (string, error) {
	return a.RunSingleStep(ctx, text, a.defaults)
}

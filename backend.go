package reactor

import (
	"context"
	"time"
)

// Backend is a language-model client able to complete a prompt.
//
// Implementations live in the models package. The reasoning engine treats every
// backend the same way: the response text is parsed by the engine, never by the backend.
type Backend interface {
	// Name identifies the backend in errors, logs and traces.
	Name() string

	// Complete sends the prompt and returns the generated text. Implementations must
	// honor ctx cancellation and must not retry.
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// CompletionRequest is a single prompt for a [Backend].
type CompletionRequest struct {
	// Model overrides the backend's default model when set.
	Model       string
	System      string
	Prompt      string
	Temperature float64
}

// Completion is the text a [Backend] generated.
type Completion struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

// BackendFunc adapts a function to [Backend].
type BackendFunc struct {
	ID string
	Fn func(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

func (b BackendFunc) Name() string { return b.ID }

func (b BackendFunc) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	return b.Fn(ctx, req)
}

// Compile-time check that BackendFunc implements Backend.
var _ Backend = BackendFunc{}

package reactor

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Run Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe a run at fixed points. To use hooks:
//
//  1. Implement the desired hook interface(s)
//  2. Register with hooks.Registry
//  3. Pass the registry to agent.Loop via WithHooks
//
// Example:
//
//	type CountingHook struct{ calls int }
//
//	func (h *CountingHook) OnAfterToolCall(ctx context.Context, e AfterToolCallEvent) {
//	    h.calls++
//	}
//
// Hooks are called in registration order. For paired hooks (Before/After), the After
// hook is always called if the Before hook was called. Hooks do not return errors and
// cannot change the course of a run.
// -----------------------------------------------------------------------------

// BeforeRunHook is notified once before the first reasoning step.
type BeforeRunHook interface {
	OnBeforeRun(ctx context.Context, event BeforeRunEvent)
}

// AfterRunHook is notified once after the run reached a terminal status.
type AfterRunHook interface {
	OnAfterRun(ctx context.Context, event AfterRunEvent)
}

// BeforeIterationHook is notified before each reasoning step.
type BeforeIterationHook interface {
	OnBeforeIteration(ctx context.Context, event BeforeIterationEvent)
}

// AfterIterationHook is notified after each reasoning step, including failed ones.
type AfterIterationHook interface {
	OnAfterIteration(ctx context.Context, event AfterIterationEvent)
}

// BeforeToolCallHook is notified before each tool is invoked.
//
// For a parallel batch, calls to this hook may happen concurrently.
type BeforeToolCallHook interface {
	OnBeforeToolCall(ctx context.Context, event BeforeToolCallEvent)
}

// AfterToolCallHook is notified after each tool invocation completes.
//
// For a parallel batch, calls to this hook may happen concurrently.
type AfterToolCallHook interface {
	OnAfterToolCall(ctx context.Context, event AfterToolCallEvent)
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

// BeforeRunEvent is emitted once when a run starts.
type BeforeRunEvent struct {
	RunID  string
	Task   string
	Config AgentConfig
}

// AfterRunEvent is emitted once when a run ends.
type AfterRunEvent struct {
	RunID  string
	Result *RunResult
}

// BeforeIterationEvent is emitted before each reasoning step.
type BeforeIterationEvent struct {
	RunID string

	// Iteration is the current iteration number (1-indexed).
	Iteration int
}

// AfterIterationEvent is emitted after each reasoning step.
type AfterIterationEvent struct {
	RunID     string
	Iteration int

	// Backend is the name of the backend that served the step.
	Backend string

	// Decision is nil when Err is set.
	Decision StepDecision
	Usage    Usage
	Duration time.Duration
	Err      error
}

// BeforeToolCallEvent is emitted before a tool is invoked.
type BeforeToolCallEvent struct {
	RunID     string
	Iteration int
	Call      ToolCall
}

// AfterToolCallEvent is emitted after a tool invocation completes.
type AfterToolCallEvent struct {
	RunID     string
	Iteration int
	Result    ToolResult
}

package reactor

import (
	"context"
	"errors"
	"time"
)

// Status is the terminal status of a run.
type Status int

const (
	// StatusCompleted means the model produced a final answer.
	StatusCompleted Status = iota
	// StatusIterationLimitExceeded means the tool-call budget ran out.
	StatusIterationLimitExceeded
	// StatusTimedOut means the total timeout elapsed.
	StatusTimedOut
	// StatusToolError means too many tool calls failed in a row.
	StatusToolError
	// StatusReasoningError means the backend failed or its output was malformed.
	StatusReasoningError
	// StatusCanceled means the caller cancelled the run's context.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusIterationLimitExceeded:
		return "IterationLimitExceeded"
	case StatusTimedOut:
		return "TimedOut"
	case StatusToolError:
		return "ToolError"
	case StatusReasoningError:
		return "ReasoningError"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// StatusForError maps an error that ended a run onto its terminal status.
// A nil error maps to StatusCompleted.
func StatusForError(err error) Status {
	switch {
	case err == nil:
		return StatusCompleted
	case errors.Is(err, ErrIterationLimitExceeded):
		return StatusIterationLimitExceeded
	case errors.Is(err, ErrRunTimedOut):
		return StatusTimedOut
	case errors.Is(err, ErrToolErrorLimit):
		return StatusToolError
	case errors.Is(err, ErrReasoningBackend), errors.Is(err, ErrMalformedDecision):
		return StatusReasoningError
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut
	default:
		return StatusReasoningError
	}
}

// Usage is the token usage reported by backends.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
	}
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// RunResult is what a run always returns, whether it completed or aborted.
type RunResult struct {
	// RunID identifies the run in logs and traces.
	RunID string

	// Answer is the final answer. Empty unless Status is StatusCompleted.
	Answer string

	// Transcript is the full history, kept on abort for diagnostics.
	Transcript Transcript

	Status Status

	// Err is the error that ended the run. Nil when Status is StatusCompleted.
	Err error

	// Iterations counts reasoning calls issued.
	Iterations int

	// ToolCalls counts ToolCall turns appended.
	ToolCalls int

	Usage    Usage
	Duration time.Duration
}

// Succeeded reports whether the run completed with an answer.
func (r *RunResult) Succeeded() bool {
	return r != nil && r.Status == StatusCompleted
}

package reactor

import (
	"errors"
	"fmt"
)

// Tool-layer errors. These are recoverable: the agent loop records them as a failed
// [ToolResult] and lets the next reasoning step decide what to do.
var (
	ErrDuplicateTool      = errors.New("duplicate tool")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrArgumentValidation = errors.New("argument validation failed")
	ErrToolTimeout        = errors.New("tool timed out")
	ErrToolExecution      = errors.New("tool execution failed")
)

// Reasoning-layer errors. These are fatal for a run.
var (
	ErrReasoningBackend  = errors.New("reasoning backend error")
	ErrMalformedDecision = errors.New("malformed decision")
)

// Budget errors.
var (
	ErrIterationLimitExceeded = errors.New("iteration limit exceeded")
	ErrRunTimedOut            = errors.New("run timed out")
	ErrToolErrorLimit         = errors.New("consecutive tool error limit exceeded")
)

// ErrInvalidConfig is returned by [AgentConfig.Validate].
var ErrInvalidConfig = errors.New("invalid agent config")

// ArgumentValidationError reports arguments that do not satisfy a tool's schema.
type ArgumentValidationError struct {
	Tool string
	Err  error
}

func (e *ArgumentValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *ArgumentValidationError) Unwrap() error { return e.Err }

func (e *ArgumentValidationError) Is(target error) bool {
	return target == ErrArgumentValidation
}

// ToolExecutionError reports a failure of the capability behind a tool.
type ToolExecutionError struct {
	Tool   string
	Detail string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Detail)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

func (e *ToolExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}

// ReasoningBackendError reports a transport or API failure of a language-model backend.
type ReasoningBackendError struct {
	Backend string
	Detail  string
	Err     error
}

func (e *ReasoningBackendError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("reasoning backend error: %s", e.Detail)
	}
	return fmt.Sprintf("reasoning backend %q: %s", e.Backend, e.Detail)
}

func (e *ReasoningBackendError) Unwrap() error { return e.Err }

func (e *ReasoningBackendError) Is(target error) bool {
	return target == ErrReasoningBackend
}

// MalformedDecisionError reports model output that could not be turned into a
// [StepDecision]. Raw holds the offending output for diagnostics.
type MalformedDecisionError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedDecisionError) Error() string {
	return fmt.Sprintf("malformed decision: %s", e.Reason)
}

func (e *MalformedDecisionError) Unwrap() error { return e.Err }

func (e *MalformedDecisionError) Is(target error) bool {
	return target == ErrMalformedDecision
}

// IsRecoverable reports whether err belongs to the tool layer and should be
// surfaced to reasoning instead of aborting the run.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrToolExecution) ||
		errors.Is(err, ErrToolTimeout) ||
		errors.Is(err, ErrArgumentValidation) ||
		errors.Is(err, ErrUnknownTool)
}

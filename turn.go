package reactor

import (
	"time"
)

// TurnKind identifies the variant of a [Turn].
type TurnKind int

const (
	KindReasoningStep TurnKind = iota
	KindToolCall
	KindToolResult
	KindObservation
)

func (k TurnKind) String() string {
	switch k {
	case KindReasoningStep:
		return "ReasoningStep"
	case KindToolCall:
		return "ToolCall"
	case KindToolResult:
		return "ToolResult"
	case KindObservation:
		return "Observation"
	default:
		return "Unknown"
	}
}

// Turn is one atomic event in a [Transcript].
//
// The set of variants is closed: [ReasoningStep], [ToolCall], [ToolResult] and
// [Observation]. Turns are values and are never modified after being appended.
type Turn interface {
	Kind() TurnKind
	turn()
}

// ReasoningStep records what the model thought and what it decided.
type ReasoningStep struct {
	Thought  string
	Decision StepDecision
}

func (ReasoningStep) Kind() TurnKind { return KindReasoningStep }
func (ReasoningStep) turn()          {}

// ToolCall records a tool invocation about to be dispatched.
// ID pairs the call with its [ToolResult] and [Observation].
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

func (ToolCall) Kind() TurnKind { return KindToolCall }
func (ToolCall) turn()          {}

// ToolStatus is the outcome recorded in a [ToolResult].
type ToolStatus int

const (
	ToolSucceeded ToolStatus = iota
	ToolFailed
)

func (s ToolStatus) String() string {
	if s == ToolSucceeded {
		return "success"
	}
	return "failure"
}

// ToolResult records the raw outcome of a [ToolCall].
//
// On failure Output is empty and Err carries the classified error
// ([ErrToolExecution], [ErrToolTimeout], [ErrArgumentValidation] or [ErrUnknownTool]).
type ToolResult struct {
	ID       string
	Name     string
	Output   string
	Status   ToolStatus
	Err      error
	Duration time.Duration
}

func (ToolResult) Kind() TurnKind { return KindToolResult }
func (ToolResult) turn()          {}

// Failed reports whether the call did not succeed.
func (r ToolResult) Failed() bool {
	return r.Status == ToolFailed
}

// Observation is the filtered, bounded text fed back into the next reasoning step.
type Observation struct {
	ID   string
	Text string
}

func (Observation) Kind() TurnKind { return KindObservation }
func (Observation) turn()          {}

// Transcript is the ordered history of a single run, oldest turn first.
type Transcript []Turn

// Count returns how many turns of the given kind the transcript holds.
func (t Transcript) Count(kind TurnKind) int {
	n := 0
	for _, turn := range t {
		if turn.Kind() == kind {
			n++
		}
	}
	return n
}

// Kinds returns the kind of every turn, in order.
func (t Transcript) Kinds() []TurnKind {
	kinds := make([]TurnKind, len(t))
	for i, turn := range t {
		kinds[i] = turn.Kind()
	}
	return kinds
}

// Last returns the most recent turn, or nil for an empty transcript.
func (t Transcript) Last() Turn {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// Clone returns a copy that can be appended to without affecting t.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

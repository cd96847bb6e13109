package reactor

// StepDecision is what a reasoning step proposes: either [Act] or [Finish].
type StepDecision interface {
	decision()
}

// ToolInvocation is a single tool call proposed by the model.
type ToolInvocation struct {
	Name string
	Args map[string]any
}

// Act asks the loop to invoke one or more tools. Calls are dispatched and recorded
// in the order they appear.
type Act struct {
	Calls []ToolInvocation
}

func (Act) decision() {}

// NewAct builds an Act with a single call.
func NewAct(name string, args map[string]any) Act {
	return Act{Calls: []ToolInvocation{{Name: name, Args: args}}}
}

// Finish ends the run with the given answer.
type Finish struct {
	Answer string
}

func (Finish) decision() {}

// Proposal is the outcome of one reasoning step.
type Proposal struct {
	Decision StepDecision

	// Thought is the model's reasoning, empty if it gave none.
	Thought string

	// Raw is the unparsed model output.
	Raw string

	// Backend names the backend that served the step.
	Backend string

	Usage Usage
}

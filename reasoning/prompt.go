package reasoning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/format"
)

//go:embed system.tmpl
var systemTemplateContent string

// DefaultSystemTemplate renders the system prompt. Every field of [SystemPromptData]
// except Time arrives already wrapped in the engine's output format.
var DefaultSystemTemplate = template.Must(
	template.New("system").Parse(systemTemplateContent),
)

// Section names of the model's reply.
const (
	SectionThinking    = "thinking"
	SectionAction      = "action"
	SectionAnswer      = "answer"
	SectionTask        = "task"
	SectionObservation = "observation"
)

// reactExplanation is the ReAct explanation shown to the model.
const reactExplanation = `You solve tasks with a cycle of reasoning and acting:
1. Think: analyze what you know so far and decide what to do next.
2. Act: call one of the available tools to gather information.
3. Observe: read the tool result, which is given back to you as an observation.

Repeat until you can answer, then give the final answer.

- Use tools to gather facts. Do not make them up.
- If a tool call fails, read the error and change your arguments, try another tool, or answer with what you have.
- Never include an action and an answer in the same reply.`

const directExplanation = `Think about the task, then give the final answer directly.`

const actionGuidance = `Call a tool using JSON:
{"tool": "tool_name", "args": {...}}

To call several tools at once, use an array:
[{"tool": "tool1", "args": {...}}, {"tool": "tool2", "args": {...}}]`

const answerGuidance = `Your final answer to the task. Only include this section when you are done.`

const thinkingGuidance = `Your reasoning about the task and the observations so far.`

// SystemPromptData is passed to the system template.
type SystemPromptData struct {
	Behavior    string
	Explanation string
	Tools       string
	Output      string
	Time        reactor.TimeProvider
}

// Prompt is the rendered input of one reasoning call.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the prompts for task and transcript. The result only depends on
// its inputs, the engine's configuration and the current date: turns are rendered
// oldest first and tool arguments are serialized with sorted keys.
func (e *Engine) BuildPrompt(task string, transcript reactor.Transcript) (*Prompt, error) {
	system, err := e.buildSystem()
	if err != nil {
		return nil, err
	}
	user, err := e.buildUser(task, transcript)
	if err != nil {
		return nil, err
	}
	return &Prompt{System: system, User: user}, nil
}

func (e *Engine) outputSections() []format.Section {
	sections := []format.Section{{Name: SectionThinking, Guidance: thinkingGuidance}}
	if e.catalog.Len() > 0 {
		sections = append(sections, format.Section{Name: SectionAction, Guidance: actionGuidance})
	}
	return append(sections, format.Section{Name: SectionAnswer, Guidance: answerGuidance})
}

func (e *Engine) buildSystem() (string, error) {
	explanation := reactExplanation
	if e.catalog.Len() == 0 {
		explanation = directExplanation
	}

	data := SystemPromptData{
		Explanation: e.format.Wrap("re_act", explanation),
		Tools:       e.format.Wrap("available_tools", e.catalog.Describe()),
		Output:      e.format.Wrap("output_format", e.format.Describe(e.outputSections())),
		Time:        e.clock,
	}
	if e.behavior != "" {
		data.Behavior = e.format.Wrap("behavior", e.behavior)
	}

	var buf bytes.Buffer
	if err := e.systemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

func (e *Engine) buildUser(task string, transcript reactor.Transcript) (string, error) {
	parts := []string{e.format.Wrap(SectionTask, task)}

	names := make(map[string]string)
	for _, turn := range transcript {
		switch t := turn.(type) {
		case reactor.ReasoningStep:
			if t.Thought != "" {
				parts = append(parts, e.format.Wrap(SectionThinking, t.Thought))
			}
			switch d := t.Decision.(type) {
			case reactor.Act:
				action, err := renderCalls(d.Calls)
				if err != nil {
					return "", err
				}
				parts = append(parts, e.format.Wrap(SectionAction, action))
			case reactor.Finish:
				parts = append(parts, e.format.Wrap(SectionAnswer, d.Answer))
			}
		case reactor.ToolCall:
			// Rendered through the action of its reasoning step.
			names[t.ID] = t.Name
		case reactor.ToolResult:
			// Rendered through its observation.
		case reactor.Observation:
			text := t.Text
			if name, ok := names[t.ID]; ok {
				text = fmt.Sprintf("Result of %s:\n%s", name, t.Text)
			}
			parts = append(parts, e.format.Wrap(SectionObservation, text))
		}
	}

	if len(transcript) > 0 {
		parts = append(parts, "Continue with your next step.")
	}
	return strings.Join(parts, "\n\n"), nil
}

type wireCall struct {
	Tool string         `json:"tool" yaml:"tool"`
	Args map[string]any `json:"args" yaml:"args"`
}

func renderCalls(calls []reactor.ToolInvocation) (string, error) {
	wire := make([]wireCall, len(calls))
	for i, c := range calls {
		wire[i] = wireCall{Tool: c.Name, Args: c.Args}
	}

	var v any = wire
	if len(wire) == 1 {
		v = wire[0]
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render tool calls: %w", err)
	}
	return string(data), nil
}

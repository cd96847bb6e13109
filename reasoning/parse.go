package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackhat-7/reactor"
)

var (
	errInvalidAction   = errors.New("action is neither valid JSON nor valid YAML")
	errMissingToolName = errors.New("tool call missing 'tool' field")
	errEmptyResponse   = errors.New("empty response")
	errNoDecision      = errors.New("response has neither an action nor an answer")
)

var codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")

// Parse turns model output into a proposal. An action takes priority over an answer,
// so a reply holding both is treated as a tool call.
//
// It fails with a [*reactor.MalformedDecisionError] when the output is empty, has
// neither an action nor a non-empty answer, holds an action that cannot be decoded, or
// names a tool the catalog does not know.
func (e *Engine) Parse(output string) (*reactor.Proposal, error) {
	if strings.TrimSpace(output) == "" {
		return nil, malformed(errEmptyResponse, output)
	}

	sections, err := e.format.Parse(output, SectionThinking, SectionAction, SectionAnswer)
	if err != nil {
		return nil, malformed(errNoDecision, output)
	}

	proposal := &reactor.Proposal{
		Thought: strings.Join(nonEmpty(sections[SectionThinking]), "\n\n"),
		Raw:     output,
	}

	var calls []reactor.ToolInvocation
	for _, content := range nonEmpty(sections[SectionAction]) {
		parsed, err := parseCalls(content)
		if err != nil {
			return nil, malformed(err, output)
		}
		calls = append(calls, parsed...)
	}
	if len(calls) > 0 {
		for _, call := range calls {
			if !e.catalog.Has(call.Name) {
				return nil, malformed(fmt.Errorf("%w: %s", reactor.ErrUnknownTool, call.Name), output)
			}
		}
		proposal.Decision = reactor.Act{Calls: calls}
		return proposal, nil
	}

	if answers := nonEmpty(sections[SectionAnswer]); len(answers) > 0 {
		proposal.Decision = reactor.Finish{Answer: strings.Join(answers, "\n\n")}
		return proposal, nil
	}

	return nil, malformed(errNoDecision, output)
}

func malformed(err error, raw string) error {
	return &reactor.MalformedDecisionError{Reason: err.Error(), Raw: raw, Err: err}
}

func nonEmpty(contents []string) []string {
	out := make([]string, 0, len(contents))
	for _, c := range contents {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// parseCalls decodes an action body: a single {"tool", "args"} object or an array of
// them, in JSON or YAML, optionally inside a markdown code fence.
func parseCalls(content string) ([]reactor.ToolInvocation, error) {
	content = strings.TrimSpace(content)
	if m := codeFencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	wire, err := decodeJSON(content)
	if err != nil {
		var yamlErr error
		if wire, yamlErr = decodeYAML(content); yamlErr != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidAction, err)
		}
	}
	if len(wire) == 0 {
		return nil, errInvalidAction
	}

	calls := make([]reactor.ToolInvocation, 0, len(wire))
	for _, w := range wire {
		if strings.TrimSpace(w.Tool) == "" {
			return nil, errMissingToolName
		}
		args := w.Args
		if args == nil {
			args = map[string]any{}
		}
		calls = append(calls, reactor.ToolInvocation{Name: strings.TrimSpace(w.Tool), Args: args})
	}
	return calls, nil
}

func decodeJSON(content string) ([]wireCall, error) {
	if strings.HasPrefix(content, "[") {
		var calls []wireCall
		if err := json.Unmarshal([]byte(content), &calls); err != nil {
			return nil, err
		}
		return calls, nil
	}
	var call wireCall
	if err := json.Unmarshal([]byte(content), &call); err != nil {
		return nil, err
	}
	return []wireCall{call}, nil
}

func decodeYAML(content string) ([]wireCall, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(content), &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, errInvalidAction
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var calls []wireCall
		if err := root.Decode(&calls); err != nil {
			return nil, err
		}
		return calls, nil
	case yaml.MappingNode:
		var call wireCall
		if err := root.Decode(&call); err != nil {
			return nil, err
		}
		return []wireCall{call}, nil
	default:
		return nil, errInvalidAction
	}
}

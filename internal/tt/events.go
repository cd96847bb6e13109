package tt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Replies in the XML layout the reasoning engine asks for.

// ActionText renders a reply calling a single tool.
func ActionText(thought, tool string, args map[string]any) string {
	data, err := json.Marshal(map[string]any{"tool": tool, "args": args})
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("<thinking>\n%s\n</thinking>\n\n<action>\n%s\n</action>", thought, data)
}

// MultiActionText renders a reply calling several tools at once. Pairs alternate tool
// name and args.
func MultiActionText(thought string, pairs ...any) string {
	calls := make([]map[string]any, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		calls = append(calls, map[string]any{"tool": pairs[i], "args": pairs[i+1]})
	}
	data, err := json.Marshal(calls)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("<thinking>\n%s\n</thinking>\n<action>\n%s\n</action>", thought, data)
}

// AnswerText renders a final-answer reply.
func AnswerText(thought, answer string) string {
	var sb strings.Builder
	if thought != "" {
		fmt.Fprintf(&sb, "<thinking>\n%s\n</thinking>\n\n", thought)
	}
	fmt.Fprintf(&sb, "<answer>\n%s\n</answer>", answer)
	return sb.String()
}

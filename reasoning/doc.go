// Package reasoning implements the "propose next step" contract of the agent loop.
//
// An [Engine] renders the task and transcript into a prompt, sends it to one of its
// backends and parses the reply into a [reactor.StepDecision]:
//
//	engine := reasoning.NewEngine(registry).
//	    WithBackend("owui", models.NewLangChain(llm, "llama3.1")).
//	    WithBackend("gemini", gemini)
//
//	proposal, err := engine.Propose(ctx, task, transcript, reactor.AgentConfig{
//	    ModelSelector: "gemini",
//	    Temperature:   0.2,
//	})
//
// # Reply Format
//
// The model replies in sections (XML tags by default):
//
//	<thinking>
//	I need recent sources.
//	</thinking>
//	<action>
//	{"tool": "web_search", "args": {"queries": ["go 1.24 release"]}}
//	</action>
//
// or, when done:
//
//	<answer>
//	Go 1.24 was released in February 2025.
//	</answer>
//
// Action bodies may be a single call or an array of calls, in JSON or YAML, optionally
// inside a code fence. An action wins over an answer. A reply that names an unknown tool
// or holds neither section is a [reactor.ErrMalformedDecision].
package reasoning

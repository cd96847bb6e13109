// Package reactor is a small agent-orchestration kernel built around the ReAct cycle.
//
// A run alternates between reasoning (asking a language model what to do next), acting
// (invoking a registered tool) and observing (filtering the tool's raw output into a bounded
// observation) until the model produces a final answer or a budget runs out.
//
// The root package only holds the shared data model:
//   - [Turn] and [Transcript], the append-only history of a run
//   - [StepDecision] ([Act] or [Finish]), what the reasoning step proposes
//   - [AgentConfig], the per-run budgets and model selection
//   - [RunResult] and [Status], what the caller always receives
//   - the error taxonomy ([ErrUnknownTool], [ErrMalformedDecision], ...)
//   - [Backend], the "complete a prompt" capability language-model clients implement
//
// The moving parts live in sub-packages:
//
//	toolchain  - tool registry with JSON Schema argument validation
//	reasoning  - prompt building, backend selection and decision parsing
//	observe    - observation filter (cleanup, dedup, bounded truncation)
//	agent      - the loop state machine
//	task       - single-step jobs such as summarization
//	models     - Backend implementations (langchaingo, openai-go, genai, ollama)
//	webtools   - web_search and web_scrape tools over a crawl endpoint
//
// # Quick Start
//
//	registry := toolchain.NewRegistry().MustRegister(webtools.SearchTool(client, 0))
//
//	engine := reasoning.NewEngine(registry).
//	    WithBackend("owui", owuiBackend).
//	    WithBackend("gemini", geminiBackend)
//
//	loop := agent.NewLoop(engine, registry)
//	result := loop.Run(ctx, "What changed in Go 1.24?", reactor.AgentConfig{
//	    MaxIterations:  5,
//	    PerStepTimeout: 30 * time.Second,
//	    TotalTimeout:   2 * time.Minute,
//	    ModelSelector:  "owui",
//	    Temperature:    0.2,
//	})
//	if result.Status != reactor.StatusCompleted {
//	    log.Printf("run aborted: %s: %v", result.Status, result.Err)
//	}
package reactor

// Version is reported in telemetry resources.
const Version = "0.3.0"

// Package agent runs the reason, act and observe cycle.
//
// A [Loop] couples a [Proposer] (usually a *reasoning.Engine) with an [Invoker]
// (usually a *toolchain.Registry):
//
//	loop := agent.NewLoop(engine, registry).
//	    RegisterHook(hooks.NewLogging(logger))
//
//	result := loop.Run(ctx, "What changed in Go 1.24?", reactor.AgentConfig{
//	    MaxIterations: 5,
//	    ModelSelector: "owui",
//	})
//	if !result.Succeeded() {
//	    log.Printf("run ended with %s: %v", result.Status, result.Err)
//	}
//
// Every ToolCall in the transcript is immediately followed by its ToolResult and then
// its Observation, even when the run is cancelled while a tool is running.
package agent

package hooks

import (
	"context"

	"github.com/blackhat-7/reactor"
)

// Registry manages a collection of hooks and dispatches run events to them.
//
// # Overview
//
// Registry is the central coordination point for hooks. It:
//   - Stores registered hooks in order
//   - Dispatches events to hooks that implement the relevant interface
//
// Hooks can implement any combination of hook interfaces - they only receive
// events for the interfaces they implement.
//
// # Creating and Using
//
//	registry := hooks.NewRegistry().
//	    Register(hooks.NewLogging(logger)).
//	    Register(&MetricsHook{})
//
//	loop := agent.NewLoop(engine, tools).WithHooks(registry)
//
// # Thread Safety
//
// Registry is NOT safe for concurrent registration. Register all hooks before the
// first run. Fire methods may be called concurrently once registration is done; hooks
// receiving tool call events of a parallel batch must be safe for concurrent use.
type Registry struct {
	hooks []any
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make([]any, 0),
	}
}

// Register adds a hook to the registry. The hook can implement any combination
// of hook interfaces (BeforeRunHook, AfterToolCallHook, etc.).
//
// Hooks are called in the order they are registered.
func (r *Registry) Register(hook any) *Registry {
	r.hooks = append(r.hooks, hook)
	return r
}

// FireBeforeRun dispatches a BeforeRunEvent to all registered BeforeRunHook
// implementations.
func (r *Registry) FireBeforeRun(ctx context.Context, event reactor.BeforeRunEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(reactor.BeforeRunHook); ok {
			hook.OnBeforeRun(ctx, event)
		}
	}
}

// FireAfterRun dispatches an AfterRunEvent to all registered AfterRunHook
// implementations.
func (r *Registry) FireAfterRun(ctx context.Context, event reactor.AfterRunEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(reactor.AfterRunHook); ok {
			hook.OnAfterRun(ctx, event)
		}
	}
}

// FireBeforeIteration dispatches a BeforeIterationEvent to all registered
// BeforeIterationHook implementations.
func (r *Registry) FireBeforeIteration(ctx context.Context, event reactor.BeforeIterationEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(reactor.BeforeIterationHook); ok {
			hook.OnBeforeIteration(ctx, event)
		}
	}
}

// FireAfterIteration dispatches an AfterIterationEvent to all registered
// AfterIterationHook implementations.
func (r *Registry) FireAfterIteration(ctx context.Context, event reactor.AfterIterationEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(reactor.AfterIterationHook); ok {
			hook.OnAfterIteration(ctx, event)
		}
	}
}

// FireBeforeToolCall dispatches a BeforeToolCallEvent to all registered
// BeforeToolCallHook implementations.
func (r *Registry) FireBeforeToolCall(ctx context.Context, event reactor.BeforeToolCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(reactor.BeforeToolCallHook); ok {
			hook.OnBeforeToolCall(ctx, event)
		}
	}
}

// FireAfterToolCall dispatches an AfterToolCallEvent to all registered
// AfterToolCallHook implementations.
func (r *Registry) FireAfterToolCall(ctx context.Context, event reactor.AfterToolCallEvent) {
	for _, h := range r.hooks {
		if hook, ok := h.(reactor.AfterToolCallHook); ok {
			hook.OnAfterToolCall(ctx, event)
		}
	}
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// Clear removes all registered hooks.
func (r *Registry) Clear() {
	r.hooks = make([]any, 0)
}

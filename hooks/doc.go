// Package hooks provides a registry for run lifecycle hooks.
//
// Hooks observe a run without changing it. Each hook interface corresponds to a
// specific event - implement only the interfaces you need.
//
// # Hook Interfaces
//
// Run lifecycle hooks:
//   - [reactor.BeforeRunHook] - Called once before the first reasoning step
//   - [reactor.AfterRunHook] - Called once with the final result
//   - [reactor.BeforeIterationHook] - Called before each reasoning step
//   - [reactor.AfterIterationHook] - Called after each reasoning step
//
// Tool call hooks:
//   - [reactor.BeforeToolCallHook] - Called before each tool invocation
//   - [reactor.AfterToolCallHook] - Called after each tool invocation
//
// # Creating a Hook
//
//	type ToolTimer struct {
//	    mu    sync.Mutex
//	    total time.Duration
//	}
//
//	func (h *ToolTimer) OnAfterToolCall(ctx context.Context, e reactor.AfterToolCallEvent) {
//	    h.mu.Lock()
//	    defer h.mu.Unlock()
//	    h.total += e.Result.Duration
//	}
//
// [Logging] is a ready-made hook writing one slog record per event.
package hooks

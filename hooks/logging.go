package hooks

import (
	"context"
	"log/slog"

	"github.com/blackhat-7/reactor"
)

// Logging writes one structured record per run event.
//
// Run boundaries are logged at Info, steps and tool calls at Debug. Failed steps and
// failed tool calls are logged at Warn.
type Logging struct {
	logger *slog.Logger
}

// NewLogging creates a logging hook. A nil logger uses slog.Default.
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger}
}

func (h *Logging) OnBeforeRun(ctx context.Context, e reactor.BeforeRunEvent) {
	h.logger.InfoContext(ctx, "run started",
		"run_id", e.RunID,
		"max_iterations", e.Config.MaxIterations,
		"selector", e.Config.ModelSelector,
	)
}

func (h *Logging) OnAfterRun(ctx context.Context, e reactor.AfterRunEvent) {
	attrs := []any{
		"run_id", e.RunID,
		"status", e.Result.Status.String(),
		"iterations", e.Result.Iterations,
		"tool_calls", e.Result.ToolCalls,
		"tokens", e.Result.Usage.Total(),
		"duration", e.Result.Duration,
	}
	if e.Result.Err != nil {
		attrs = append(attrs, "err", e.Result.Err)
	}
	h.logger.InfoContext(ctx, "run finished", attrs...)
}

func (h *Logging) OnAfterIteration(ctx context.Context, e reactor.AfterIterationEvent) {
	if e.Err != nil {
		h.logger.WarnContext(ctx, "reasoning step failed",
			"run_id", e.RunID,
			"iteration", e.Iteration,
			"backend", e.Backend,
			"err", e.Err,
		)
		return
	}

	attrs := []any{
		"run_id", e.RunID,
		"iteration", e.Iteration,
		"backend", e.Backend,
		"duration", e.Duration,
	}
	if act, ok := e.Decision.(reactor.Act); ok {
		attrs = append(attrs, "decision", "act", "calls", len(act.Calls))
	} else {
		attrs = append(attrs, "decision", "finish")
	}
	h.logger.DebugContext(ctx, "reasoning step", attrs...)
}

func (h *Logging) OnAfterToolCall(ctx context.Context, e reactor.AfterToolCallEvent) {
	if e.Result.Failed() {
		h.logger.WarnContext(ctx, "tool call failed",
			"run_id", e.RunID,
			"iteration", e.Iteration,
			"tool", e.Result.Name,
			"call_id", e.Result.ID,
			"err", e.Result.Err,
		)
		return
	}
	h.logger.DebugContext(ctx, "tool call",
		"run_id", e.RunID,
		"iteration", e.Iteration,
		"tool", e.Result.Name,
		"call_id", e.Result.ID,
		"duration", e.Result.Duration,
		"output_len", len(e.Result.Output),
	)
}

var (
	_ reactor.BeforeRunHook      = (*Logging)(nil)
	_ reactor.AfterRunHook       = (*Logging)(nil)
	_ reactor.AfterIterationHook = (*Logging)(nil)
	_ reactor.AfterToolCallHook  = (*Logging)(nil)
)

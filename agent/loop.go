package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/hooks"
	"github.com/blackhat-7/reactor/observe"
	"github.com/blackhat-7/reactor/toolchain"
)

const tracerName = "github.com/blackhat-7/reactor/agent"

// Proposer decides the next step of a run. *reasoning.Engine implements it.
type Proposer interface {
	Propose(
		ctx context.Context,
		task string,
		transcript reactor.Transcript,
		cfg reactor.AgentConfig,
	) (*reactor.Proposal, error)
}

// Invoker runs tools. *toolchain.Registry implements it.
type Invoker interface {
	Has(name string) bool
	Invoke(
		ctx context.Context,
		name string,
		args map[string]any,
		timeout time.Duration,
	) (*toolchain.Invocation, error)
}

// FilterFunc bounds raw tool output before it is fed back into reasoning.
type FilterFunc func(raw string, maxLength int) string

// Loop drives the reason, act and observe cycle of a run.
//
// A Loop is configured once and may then run any number of tasks concurrently; every
// run owns its transcript. Run never panics on backend or tool failures and always
// returns a result.
type Loop struct {
	engine Proposer
	tools  Invoker
	filter FilterFunc
	hooks  *hooks.Registry
	logger *slog.Logger
	tracer trace.Tracer
	clock  reactor.TimeProvider
	newID  func() string
}

// NewLoop creates a loop proposing with engine and acting through tools. Observations
// are bounded with [observe.Filter].
func NewLoop(engine Proposer, tools Invoker) *Loop {
	return &Loop{
		engine: engine,
		tools:  tools,
		filter: observe.Filter,
		hooks:  hooks.NewRegistry(),
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		clock:  reactor.NewDefaultTimeProvider(),
		newID:  uuid.NewString,
	}
}

// WithHooks replaces the loop's hook registry with the provided one.
// Use this when you need to share a registry across multiple loops.
func (l *Loop) WithHooks(h *hooks.Registry) *Loop {
	l.hooks = h
	return l
}

// RegisterHook adds a hook to the loop's existing hook registry.
func (l *Loop) RegisterHook(hook any) *Loop {
	l.hooks.Register(hook)
	return l
}

// WithFilter replaces the observation filter.
func (l *Loop) WithFilter(f FilterFunc) *Loop {
	l.filter = f
	return l
}

// WithLogger sets the logger.
func (l *Loop) WithLogger(logger *slog.Logger) *Loop {
	l.logger = logger
	return l
}

// WithTracer sets the tracer used for run, step and tool spans.
func (l *Loop) WithTracer(tracer trace.Tracer) *Loop {
	l.tracer = tracer
	return l
}

// WithTimeProvider sets the clock used for elapsed time and durations.
func (l *Loop) WithTimeProvider(tp reactor.TimeProvider) *Loop {
	l.clock = tp
	return l
}

// WithIDGenerator sets the generator of run and tool call IDs.
func (l *Loop) WithIDGenerator(fn func() string) *Loop {
	l.newID = fn
	return l
}

// Run executes task until the model answers or a stop condition triggers.
//
// The run flow:
//  1. Before every reasoning step, check in order: caller cancellation (Canceled),
//     tool call budget (IterationLimitExceeded) and total time (TimedOut)
//  2. Ask the engine for a decision; a failure ends the run with ReasoningError
//  3. On Finish, record the step and complete
//  4. On Act, record the step, invoke each call and record the ToolCall, ToolResult
//     and Observation of each call in proposed order, then go back to 1
//
// Tool failures are recorded and shown to the next reasoning step. The run only
// aborts on them when more than MaxConsecutiveToolErrors fail in a row.
func (l *Loop) Run(ctx context.Context, task string, cfg reactor.AgentConfig) *reactor.RunResult {
	r := &run{
		loop:   l,
		task:   task,
		parent: ctx,
		start:  l.clock.Now(),
		result: &reactor.RunResult{RunID: l.newID()},
	}

	if err := cfg.Validate(); err != nil {
		r.result.Err = err
		r.result.Status = reactor.StatusForError(err)
		return r.result
	}
	r.cfg = cfg.Normalize()

	ctx, span := l.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("reactor.run_id", r.result.RunID),
		attribute.String("reactor.model_selector", r.cfg.ModelSelector),
		attribute.Int("reactor.max_iterations", r.cfg.MaxIterations),
	))
	defer span.End()
	r.span = span
	r.parent = ctx

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.TotalTimeout)
	defer cancel()
	r.ctx = runCtx

	l.hooks.FireBeforeRun(ctx, reactor.BeforeRunEvent{
		RunID:  r.result.RunID,
		Task:   task,
		Config: r.cfg,
	})
	r.execute()
	r.finalize()
	l.hooks.FireAfterRun(ctx, reactor.AfterRunEvent{RunID: r.result.RunID, Result: r.result})
	return r.result
}

// run is the state of one Run call.
type run struct {
	loop *Loop
	cfg  reactor.AgentConfig
	task string

	// parent is the caller's context; ctx adds the total deadline.
	parent context.Context
	ctx    context.Context
	span   trace.Span

	start             time.Time
	result            *reactor.RunResult
	consecutiveErrors int
}

func (r *run) execute() {
	for {
		if err := r.checkBudget(); err != nil {
			r.abort(err)
			return
		}

		r.result.Iterations++
		iteration := r.result.Iterations

		proposal, err := r.reason(iteration)
		if err != nil {
			r.abort(r.reasoningFailure(err))
			return
		}

		switch d := proposal.Decision.(type) {
		case reactor.Finish:
			r.append(reactor.ReasoningStep{Thought: proposal.Thought, Decision: d})
			r.result.Answer = d.Answer
			r.result.Status = reactor.StatusCompleted
			return

		case reactor.Act:
			if err := r.checkCalls(d, proposal.Raw); err != nil {
				r.abort(err)
				return
			}
			calls := r.withinBudget(d.Calls)
			r.append(reactor.ReasoningStep{Thought: proposal.Thought, Decision: reactor.Act{Calls: calls}})
			if err := r.act(iteration, calls); err != nil {
				r.abort(err)
				return
			}

		default:
			r.abort(&reactor.MalformedDecisionError{
				Reason: fmt.Sprintf("unsupported decision %T", proposal.Decision),
				Raw:    proposal.Raw,
			})
			return
		}
	}
}

// checkBudget runs before every reasoning step.
func (r *run) checkBudget() error {
	if r.parent.Err() != nil {
		return r.interrupted()
	}
	if r.result.ToolCalls >= r.cfg.MaxIterations {
		return fmt.Errorf("%w: %d tool calls made, limit is %d",
			reactor.ErrIterationLimitExceeded, r.result.ToolCalls, r.cfg.MaxIterations)
	}
	elapsed := r.loop.clock.Now().Sub(r.start)
	if elapsed >= r.cfg.TotalTimeout || r.ctx.Err() != nil {
		return fmt.Errorf("%w: %s elapsed, limit is %s",
			reactor.ErrRunTimedOut, elapsed.Round(time.Millisecond), r.cfg.TotalTimeout)
	}
	return nil
}

// interrupted describes why the caller's context ended.
func (r *run) interrupted() error {
	err := r.parent.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", reactor.ErrRunTimedOut, err)
	}
	return fmt.Errorf("run canceled: %w", err)
}

// reasoningFailure classifies an error returned by the engine. A step cut short by the
// end of the run is reported as such; anything else is a reasoning error.
func (r *run) reasoningFailure(err error) error {
	if r.parent.Err() != nil {
		return r.interrupted()
	}
	if r.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", reactor.ErrRunTimedOut, err)
	}
	if errors.Is(err, reactor.ErrReasoningBackend) || errors.Is(err, reactor.ErrMalformedDecision) {
		return err
	}
	return &reactor.ReasoningBackendError{Detail: err.Error(), Err: err}
}

func (r *run) reason(iteration int) (*reactor.Proposal, error) {
	l := r.loop
	l.hooks.FireBeforeIteration(r.ctx, reactor.BeforeIterationEvent{
		RunID:     r.result.RunID,
		Iteration: iteration,
	})

	stepCtx, cancel := context.WithTimeout(r.ctx, r.cfg.PerStepTimeout)
	defer cancel()
	stepCtx, span := l.tracer.Start(stepCtx, "agent.reason",
		trace.WithAttributes(attribute.Int("reactor.iteration", iteration)))
	defer span.End()

	start := l.clock.Now()
	proposal, err := l.engine.Propose(stepCtx, r.task, r.result.Transcript, r.cfg)
	if err == nil && (proposal == nil || proposal.Decision == nil) {
		err = &reactor.MalformedDecisionError{Reason: "engine returned no decision"}
	}

	event := reactor.AfterIterationEvent{
		RunID:     r.result.RunID,
		Iteration: iteration,
		Duration:  l.clock.Now().Sub(start),
		Err:       err,
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		proposal = nil
	} else {
		r.result.Usage = r.result.Usage.Add(proposal.Usage)
		event.Backend = proposal.Backend
		event.Decision = proposal.Decision
		event.Usage = proposal.Usage
		span.SetAttributes(
			attribute.String("reactor.backend", proposal.Backend),
			attribute.Int("gen_ai.usage.input_tokens", proposal.Usage.InputTokens),
			attribute.Int("gen_ai.usage.output_tokens", proposal.Usage.OutputTokens),
		)
	}
	l.hooks.FireAfterIteration(r.ctx, event)
	return proposal, err
}

// checkCalls rejects an Act that cannot be executed. Nothing is appended for it.
func (r *run) checkCalls(act reactor.Act, raw string) error {
	if len(act.Calls) == 0 {
		return &reactor.MalformedDecisionError{Reason: "action has no tool calls", Raw: raw}
	}
	for _, call := range act.Calls {
		if !r.loop.tools.Has(call.Name) {
			return &reactor.MalformedDecisionError{
				Reason: fmt.Sprintf("tool %q is not registered", call.Name),
				Raw:    raw,
				Err:    reactor.ErrUnknownTool,
			}
		}
	}
	return nil
}

// withinBudget drops the calls the remaining tool call budget cannot pay for.
func (r *run) withinBudget(calls []reactor.ToolInvocation) []reactor.ToolInvocation {
	remaining := r.cfg.MaxIterations - r.result.ToolCalls
	if len(calls) <= remaining {
		return calls
	}
	r.loop.logger.WarnContext(r.ctx, "dropping tool calls over budget",
		"run_id", r.result.RunID,
		"proposed", len(calls),
		"kept", remaining,
	)
	return calls[:remaining]
}

// act invokes calls and appends their turns in proposed order. It returns an error
// only when the consecutive tool error limit is exceeded.
func (r *run) act(iteration int, calls []reactor.ToolInvocation) error {
	pending := make([]reactor.ToolCall, len(calls))
	for i, c := range calls {
		pending[i] = reactor.ToolCall{ID: r.loop.newID(), Name: c.Name, Args: c.Args}
	}

	results := make([]reactor.ToolResult, len(pending))
	if len(pending) == 1 {
		results[0] = r.invoke(iteration, pending[0])
	} else {
		var g errgroup.Group
		g.SetLimit(r.cfg.MaxParallelCalls)
		for i := range pending {
			g.Go(func() error {
				results[i] = r.invoke(iteration, pending[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, call := range pending {
		res := results[i]
		r.append(call)
		r.append(res)
		r.append(reactor.Observation{ID: call.ID, Text: r.observe(res)})

		if res.Failed() {
			r.consecutiveErrors++
		} else {
			r.consecutiveErrors = 0
		}
	}

	limit := r.cfg.MaxConsecutiveToolErrors
	if limit >= 0 && r.consecutiveErrors > limit && r.ctx.Err() == nil {
		return fmt.Errorf("%w: %d tool calls failed in a row", reactor.ErrToolErrorLimit, r.consecutiveErrors)
	}
	return nil
}

func (r *run) invoke(iteration int, call reactor.ToolCall) reactor.ToolResult {
	l := r.loop
	l.hooks.FireBeforeToolCall(r.ctx, reactor.BeforeToolCallEvent{
		RunID:     r.result.RunID,
		Iteration: iteration,
		Call:      call,
	})

	ctx, span := l.tracer.Start(r.ctx, "agent.tool", trace.WithAttributes(
		attribute.String("reactor.tool.name", call.Name),
		attribute.String("reactor.tool.call_id", call.ID),
	))
	defer span.End()

	start := l.clock.Now()
	inv, err := l.tools.Invoke(ctx, call.Name, call.Args, r.cfg.PerStepTimeout)

	res := reactor.ToolResult{ID: call.ID, Name: call.Name}
	if err != nil {
		res.Status = reactor.ToolFailed
		res.Err = err
		res.Duration = l.clock.Now().Sub(start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		res.Status = reactor.ToolSucceeded
		res.Output = inv.Output
		res.Duration = inv.Duration
	}

	l.hooks.FireAfterToolCall(r.ctx, reactor.AfterToolCallEvent{
		RunID:     r.result.RunID,
		Iteration: iteration,
		Result:    res,
	})
	return res
}

// observe renders a result as the text the next reasoning step sees.
func (r *run) observe(res reactor.ToolResult) string {
	var text string
	switch {
	case res.Failed():
		text = fmt.Sprintf("tool %s failed: %s", res.Name, failureDetail(res.Err))
	case res.Output == "":
		text = fmt.Sprintf("tool %s returned no output", res.Name)
	default:
		text = res.Output
	}
	return r.loop.filter(text, r.cfg.MaxObservationLength)
}

func failureDetail(err error) string {
	var execErr *reactor.ToolExecutionError
	if errors.As(err, &execErr) && execErr.Detail != "" {
		return execErr.Detail
	}
	return err.Error()
}

func (r *run) append(turn reactor.Turn) {
	r.result.Transcript = append(r.result.Transcript, turn)
	if turn.Kind() == reactor.KindToolCall {
		r.result.ToolCalls++
	}
}

func (r *run) abort(err error) {
	r.result.Err = err
	r.result.Status = reactor.StatusForError(err)
}

func (r *run) finalize() {
	res := r.result
	res.Duration = r.loop.clock.Now().Sub(r.start)

	r.span.SetAttributes(
		attribute.String("reactor.status", res.Status.String()),
		attribute.Int("reactor.iterations", res.Iterations),
		attribute.Int("reactor.tool_calls", res.ToolCalls),
	)
	if res.Err != nil {
		r.span.RecordError(res.Err)
		r.span.SetStatus(codes.Error, res.Status.String())
		r.loop.logger.DebugContext(r.parent, "run aborted",
			"run_id", res.RunID,
			"status", res.Status.String(),
			"err", res.Err,
		)
	}
}

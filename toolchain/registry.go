package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/schema"
)

// Handler executes a tool. Args have already been validated against the tool's schema
// and use JSON-decoded types. Handlers must honor ctx cancellation.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// ToolSpec describes an invocable capability.
type ToolSpec struct {
	// Name is unique within a Registry.
	Name string

	// Description is shown to the model.
	Description string

	// Parameters is the JSON Schema of the arguments, usually built with schema.Object.
	// Nil means the tool takes no arguments.
	Parameters map[string]any

	Handler Handler
}

// Invocation is the outcome of a successful [Registry.Invoke].
type Invocation struct {
	Output   string
	Duration time.Duration
}

type entry struct {
	spec   ToolSpec
	schema *schema.Schema
}

// Registry holds the tools available to the agent, keyed by name.
//
// Registry is NOT safe for concurrent registration. Register every tool at startup;
// after that the registry is read-only and may be shared by any number of runs.
type Registry struct {
	tools map[string]*entry
	clock reactor.TimeProvider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*entry),
		clock: reactor.NewDefaultTimeProvider(),
	}
}

// WithTimeProvider sets the clock used to measure invocation durations.
func (r *Registry) WithTimeProvider(tp reactor.TimeProvider) *Registry {
	r.clock = tp
	return r
}

// Register adds a tool. It fails with [reactor.ErrDuplicateTool] if the name is taken,
// and when the ToolSpec has no name, no handler or an invalid schema.
func (r *Registry) Register(spec ToolSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return errors.New("tool name is required")
	}
	if spec.Handler == nil {
		return fmt.Errorf("tool %q has no handler", name)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", reactor.ErrDuplicateTool, name)
	}

	params := spec.Parameters
	if params == nil {
		params = schema.Empty()
	}
	compiled, err := schema.Compile(params)
	if err != nil {
		return fmt.Errorf("tool %q: %w", name, err)
	}

	spec.Name = name
	spec.Parameters = params
	r.tools[name] = &entry{spec: spec, schema: compiled}
	return nil
}

// MustRegister registers every spec and panics on the first error.
func (r *Registry) MustRegister(specs ...ToolSpec) *Registry {
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (ToolSpec, bool) {
	e, ok := r.tools[name]
	if !ok {
		return ToolSpec{}, false
	}
	return e.spec, true
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns the registered specs sorted by name.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.tools))
	for _, name := range r.Names() {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Describe renders the tool list for the system prompt. The output only depends on
// the registered specs, so it is stable across runs.
func (r *Registry) Describe() string {
	if len(r.tools) == 0 {
		return "No tools are available. Answer directly."
	}

	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, spec := range r.Specs() {
		fmt.Fprintf(&sb, "\n- %s: %s\n", spec.Name, spec.Description)
		schemaJSON, err := json.MarshalIndent(spec.Parameters, "  ", "  ")
		if err == nil {
			sb.WriteString("  Parameters: ")
			sb.Write(schemaJSON)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

type outcome struct {
	output string
	err    error
}

// Invoke validates args and runs the named tool, bounded by timeout (zero means no
// timeout beyond ctx).
//
// Errors:
//   - [reactor.ErrUnknownTool] when name is not registered
//   - [*reactor.ArgumentValidationError] when args do not satisfy the schema
//   - [reactor.ErrToolTimeout] when the tool runs longer than timeout
//   - [*reactor.ToolExecutionError] when the tool itself fails
//   - ctx.Err() wrapped when ctx ends before the tool returns
//
// Invoke never retries. It returns as soon as the timeout fires, without waiting for
// a handler that ignores cancellation.
func (r *Registry) Invoke(
	ctx context.Context,
	name string,
	args map[string]any,
	timeout time.Duration,
) (*Invocation, error) {
	e, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reactor.ErrUnknownTool, name)
	}

	normalized, err := normalizeArgs(args)
	if err != nil {
		return nil, &reactor.ArgumentValidationError{Tool: name, Err: err}
	}
	if err := e.schema.Validate(normalized); err != nil {
		return nil, &reactor.ArgumentValidationError{Tool: name, Err: err}
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := r.clock.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		out, err := e.spec.Handler(callCtx, normalized)
		done <- outcome{output: out, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = outcome{err: callCtx.Err()}
	}
	duration := r.clock.Now().Sub(start)

	if res.err == nil {
		return &Invocation{Output: res.output, Duration: duration}, nil
	}

	// The parent context ending is not the tool's fault.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("tool %q interrupted: %w", name, ctx.Err())
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s exceeded %s", reactor.ErrToolTimeout, name, timeout)
	}

	var execErr *reactor.ToolExecutionError
	if errors.As(res.err, &execErr) {
		if execErr.Tool == "" {
			execErr.Tool = name
		}
		return nil, execErr
	}
	return nil, &reactor.ToolExecutionError{Tool: name, Detail: res.err.Error(), Err: res.err}
}

// normalizeArgs converts args into JSON-decoded types so typed Go values validate
// exactly like model output.
func normalizeArgs(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("arguments are not JSON-encodable: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return out, nil
}

package reasoning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"text/template"

	"github.com/blackhat-7/reactor"
	"github.com/blackhat-7/reactor/format"
)

// Catalog is the read-only view of the tool registry the engine needs.
// *toolchain.Registry implements it.
type Catalog interface {
	Has(name string) bool
	Len() int
	Describe() string
}

// Engine proposes the next step of a run by prompting a language-model backend.
//
// Backends are registered under a selector; [reactor.AgentConfig.ModelSelector] picks
// one per call. Every backend goes through the same prompt building and parsing, so
// swapping backends never changes how replies are interpreted.
//
// Engine is configured once and then read-only; it may be shared by concurrent runs.
type Engine struct {
	backends        map[string]reactor.Backend
	defaultSelector string
	catalog         Catalog
	format          format.Format
	behavior        string
	clock           reactor.TimeProvider
	systemTemplate  *template.Template
}

// NewEngine creates an engine proposing calls to the tools in catalog. It uses the XML
// format until [Engine.WithFormat] says otherwise.
func NewEngine(catalog Catalog) *Engine {
	return &Engine{
		backends:       make(map[string]reactor.Backend),
		catalog:        catalog,
		format:         format.NewXML(),
		clock:          reactor.NewDefaultTimeProvider(),
		systemTemplate: DefaultSystemTemplate,
	}
}

// WithBackend registers a backend under selector. The first registered backend is
// the default.
func (e *Engine) WithBackend(selector string, backend reactor.Backend) *Engine {
	e.backends[selector] = backend
	if e.defaultSelector == "" {
		e.defaultSelector = selector
	}
	return e
}

// WithDefault sets the selector used when a config leaves ModelSelector empty.
func (e *Engine) WithDefault(selector string) *Engine {
	e.defaultSelector = selector
	return e
}

// WithFormat sets the section format used in prompts and when parsing replies.
func (e *Engine) WithFormat(f format.Format) *Engine {
	e.format = f
	return e
}

// WithBehavior sets the persona and context placed at the top of the system prompt.
func (e *Engine) WithBehavior(behavior string) *Engine {
	e.behavior = behavior
	return e
}

// WithTimeProvider sets the clock used for the date in the system prompt.
func (e *Engine) WithTimeProvider(tp reactor.TimeProvider) *Engine {
	e.clock = tp
	return e
}

// WithSystemTemplate replaces the system prompt template. It receives [SystemPromptData].
func (e *Engine) WithSystemTemplate(tmpl *template.Template) *Engine {
	e.systemTemplate = tmpl
	return e
}

// Fork returns a copy of the engine bound to another catalog. Backend handles are
// shared; later changes to either engine do not affect the other.
func (e *Engine) Fork(catalog Catalog) *Engine {
	backends := make(map[string]reactor.Backend, len(e.backends))
	for k, v := range e.backends {
		backends[k] = v
	}
	clone := *e
	clone.backends = backends
	clone.catalog = catalog
	return &clone
}

// Selectors returns the registered selectors, sorted.
func (e *Engine) Selectors() []string {
	out := make([]string, 0, len(e.backends))
	for k := range e.backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Backend resolves a selector. An empty selector resolves to the default.
func (e *Engine) Backend(selector string) (reactor.Backend, error) {
	if selector == "" {
		selector = e.defaultSelector
	}
	b, ok := e.backends[selector]
	if !ok {
		return nil, &reactor.ReasoningBackendError{
			Backend: selector,
			Detail:  fmt.Sprintf("no backend registered (have %v)", e.Selectors()),
		}
	}
	return b, nil
}

// Propose asks the selected backend for the next step of the run.
//
// Errors are a [*reactor.ReasoningBackendError] when the backend cannot be resolved or
// its call fails, and a [*reactor.MalformedDecisionError] when the reply cannot be
// parsed. Propose never retries.
func (e *Engine) Propose(
	ctx context.Context,
	task string,
	transcript reactor.Transcript,
	cfg reactor.AgentConfig,
) (*reactor.Proposal, error) {
	backend, err := e.Backend(cfg.ModelSelector)
	if err != nil {
		return nil, err
	}

	prompt, err := e.BuildPrompt(task, transcript)
	if err != nil {
		return nil, err
	}

	completion, err := backend.Complete(ctx, &reactor.CompletionRequest{
		Model:       cfg.Model,
		System:      prompt.System,
		Prompt:      prompt.User,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		var backendErr *reactor.ReasoningBackendError
		if errors.As(err, &backendErr) {
			return nil, err
		}
		return nil, &reactor.ReasoningBackendError{
			Backend: backend.Name(),
			Detail:  err.Error(),
			Err:     err,
		}
	}
	if completion == nil {
		return nil, &reactor.ReasoningBackendError{Backend: backend.Name(), Detail: "no completion returned"}
	}

	proposal, err := e.Parse(completion.Text)
	if err != nil {
		return nil, err
	}
	proposal.Backend = backend.Name()
	proposal.Usage = completion.Usage
	return proposal, nil
}

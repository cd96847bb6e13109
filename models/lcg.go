package models

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/blackhat-7/reactor"
)

// LangChain wraps an llms.Model and implements [reactor.Backend].
// It normalizes token usage across providers.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	backend := models.NewLangChain(llm).WithModelName("gpt-4o-mini")
type LangChain struct {
	model     llms.Model
	name      string
	modelName string
	clock     reactor.TimeProvider
}

// NewLangChain creates a backend named "langchain" wrapping the given llms.Model.
func NewLangChain(model llms.Model) *LangChain {
	return &LangChain{
		model: model,
		name:  "langchain",
		clock: reactor.NewDefaultTimeProvider(),
	}
}

// WithName sets the name reported in proposals and errors.
func (m *LangChain) WithName(name string) *LangChain {
	m.name = name
	return m
}

// WithModelName sets the model used when a request does not name one.
func (m *LangChain) WithModelName(name string) *LangChain {
	m.modelName = name
	return m
}

// WithTimeProvider sets the clock used to measure calls.
func (m *LangChain) WithTimeProvider(tp reactor.TimeProvider) *LangChain {
	m.clock = tp
	return m
}

// Unwrap returns the underlying llms.Model.
func (m *LangChain) Unwrap() llms.Model {
	return m.model
}

// Name implements reactor.Backend.
func (m *LangChain) Name() string {
	return m.name
}

// Complete implements reactor.Backend.
func (m *LangChain) Complete(
	ctx context.Context,
	req *reactor.CompletionRequest,
) (*reactor.Completion, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if model := pickModel(req.Model, m.modelName); model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	start := m.clock.Now()
	resp, err := m.model.GenerateContent(ctx, messages, opts...)
	duration := m.clock.Now().Sub(start)
	if err != nil {
		return nil, backendError(m.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, backendError(m.name, errEmptyResponse)
	}

	choice := resp.Choices[0]
	completion := &reactor.Completion{Text: choice.Content, Duration: duration}
	if choice.GenerationInfo != nil {
		completion.Usage = reactor.Usage{
			InputTokens:  extractInputTokens(choice.GenerationInfo),
			OutputTokens: extractOutputTokens(choice.GenerationInfo),
		}
	}
	return completion, nil
}

var errEmptyResponse = errors.New("empty response")

// pickModel returns the request's model, falling back to the backend default.
func pickModel(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	return fallback
}

func backendError(name string, err error) error {
	return &reactor.ReasoningBackendError{Backend: name, Detail: err.Error(), Err: err}
}

// extractInputTokens extracts input/prompt token count from GenerationInfo.
// Handles different key names used by different providers.
func extractInputTokens(info map[string]any) int {
	// OpenAI / Ollama / Google (compat)
	if v := getIntFromMap(info, "PromptTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := getIntFromMap(info, "InputTokens"); v > 0 {
		return v
	}
	// Google / Bedrock
	if v := getIntFromMap(info, "input_tokens"); v > 0 {
		return v
	}
	return 0
}

// extractOutputTokens extracts output/completion token count from GenerationInfo.
func extractOutputTokens(info map[string]any) int {
	if v := getIntFromMap(info, "CompletionTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "OutputTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "output_tokens"); v > 0 {
		return v
	}
	return 0
}

// getIntFromMap extracts an int value from a map, handling various numeric types.
func getIntFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

// Compile-time check that LangChain implements reactor.Backend.
var _ reactor.Backend = (*LangChain)(nil)


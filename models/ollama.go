package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/blackhat-7/reactor"
)

// OllamaDefaultModel is used when neither the request nor the backend names a model.
const OllamaDefaultModel = "llama3.1:8b"

// Ollama is a backend for a local Ollama server.
type Ollama struct {
	client *api.Client
	name   string
	model  string
	clock  reactor.TimeProvider
}

// NewOllama creates a backend named "ollama". An empty host reads OLLAMA_HOST the way
// the ollama CLI does.
func NewOllama(host, model string, httpClient *http.Client) (*Ollama, error) {
	var client *api.Client
	if host == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client from environment: %w", err)
		}
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(u, httpClient)
	}

	if model == "" {
		model = OllamaDefaultModel
	}
	return &Ollama{
		client: client,
		name:   "ollama",
		model:  model,
		clock:  reactor.NewDefaultTimeProvider(),
	}, nil
}

// WithName sets the name reported in proposals and errors.
func (o *Ollama) WithName(name string) *Ollama {
	o.name = name
	return o
}

// Name implements reactor.Backend.
func (o *Ollama) Name() string {
	return o.name
}

// Complete implements reactor.Backend.
func (o *Ollama) Complete(
	ctx context.Context,
	req *reactor.CompletionRequest,
) (*reactor.Completion, error) {
	messages := make([]api.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    pickModel(req.Model, o.model),
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{"temperature": req.Temperature},
	}

	var (
		text  string
		usage reactor.Usage
	)
	start := o.clock.Now()
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		text += resp.Message.Content
		if resp.Done {
			usage = reactor.Usage{
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}
		}
		return nil
	})
	duration := o.clock.Now().Sub(start)
	if err != nil {
		return nil, backendError(o.name, err)
	}

	return &reactor.Completion{Text: text, Usage: usage, Duration: duration}, nil
}

var _ reactor.Backend = (*Ollama)(nil)

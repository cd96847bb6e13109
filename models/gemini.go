package models

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/blackhat-7/reactor"
)

// GeminiDefaultModel is used when neither the request nor the backend names a model.
const GeminiDefaultModel = "gemini-2.0-flash"

// Gemini is a backend using the Google Gen AI SDK against the Gemini API.
type Gemini struct {
	client *genai.Client
	name   string
	model  string
	clock  reactor.TimeProvider
}

// NewGemini creates a backend named "gemini". baseURL may be empty to use the
// default endpoint.
func NewGemini(ctx context.Context, apiKey, model, baseURL string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = GeminiDefaultModel
	}
	return &Gemini{
		client: client,
		name:   "gemini",
		model:  model,
		clock:  reactor.NewDefaultTimeProvider(),
	}, nil
}

// WithName sets the name reported in proposals and errors.
func (g *Gemini) WithName(name string) *Gemini {
	g.name = name
	return g
}

// Name implements reactor.Backend.
func (g *Gemini) Name() string {
	return g.name
}

// Complete implements reactor.Backend.
func (g *Gemini) Complete(
	ctx context.Context,
	req *reactor.CompletionRequest,
) (*reactor.Completion, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := g.clock.Now()
	resp, err := g.client.Models.GenerateContent(ctx, pickModel(req.Model, g.model), genai.Text(req.Prompt), config)
	duration := g.clock.Now().Sub(start)
	if err != nil {
		return nil, backendError(g.name, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, backendError(g.name, errEmptyResponse)
	}

	completion := &reactor.Completion{Text: resp.Text(), Duration: duration}
	if resp.UsageMetadata != nil {
		completion.Usage = reactor.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return completion, nil
}

var _ reactor.Backend = (*Gemini)(nil)

package models

import (
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// GitHubModelsBaseURL is the base URL for the GitHub Models API.
	// The OpenAI-compatible chat completions endpoint is at
	// {baseURL}/chat/completions.
	GitHubModelsBaseURL = "https://models.github.ai/inference"

	// GitHubDefaultModel is used when no model is configured. Model names use the
	// publisher/model format.
	GitHubDefaultModel = "openai/gpt-4o-mini"

	// openWebUINoKey is sent as the bearer token to servers running without
	// authentication. langchaingo refuses to build a client with an empty token.
	openWebUINoKey = "none"
)

// githubHeaderTransport wraps an http.RoundTripper and injects
// GitHub-specific headers into every request.
type githubHeaderTransport struct {
	base http.RoundTripper
}

func (t *githubHeaderTransport) Do(
	req *http.Request,
) (*http.Response, error) {
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return t.base.RoundTrip(req)
}

// NewGitHubModels creates a backend named "github" served by the GitHub Models API.
//
// The token must be a GitHub Personal Access Token (fine-grained)
// with the models:read permission under Account permissions.
//
// Additional openai.Option values can be passed to customise the
// underlying LangChainGo OpenAI client (e.g. WithBaseURL in tests).
func NewGitHubModels(
	model string,
	token string,
	opts ...openai.Option,
) (*LangChain, error) {
	if token == "" {
		return nil, fmt.Errorf(
			"github token is required: " +
				"create a fine-grained PAT with models:read " +
				"at https://github.com/settings/personal-access-tokens/new",
		)
	}
	if model == "" {
		model = GitHubDefaultModel
	}

	baseOpts := []openai.Option{
		openai.WithBaseURL(GitHubModelsBaseURL),
		openai.WithToken(token),
		openai.WithModel(model),
		openai.WithHTTPClient(&githubHeaderTransport{
			base: http.DefaultTransport,
		}),
	}

	// Caller options come after so they can override defaults.
	llm, err := openai.New(append(baseOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
	}

	return NewLangChain(llm).WithName("github").WithModelName(model), nil
}

// NewOpenWebUI creates a backend named "owui" for an Open WebUI server, or any other
// OpenAI-compatible chat completions API. baseURL is the API root, for example
// "http://localhost:3000/api". An empty apiKey is allowed for servers without
// authentication.
func NewOpenWebUI(baseURL, apiKey, model string, opts ...openai.Option) (*LangChain, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("open webui base url is required")
	}
	if apiKey == "" {
		apiKey = openWebUINoKey
	}

	baseOpts := []openai.Option{
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
	}
	if model != "" {
		baseOpts = append(baseOpts, openai.WithModel(model))
	}

	llm, err := openai.New(append(baseOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Open WebUI client: %w", err)
	}
	return NewLangChain(llm).WithName("owui").WithModelName(model), nil
}

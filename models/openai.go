package models

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/blackhat-7/reactor"
)

// OpenAIDefaultModel is used when neither the request nor the backend names a model.
const OpenAIDefaultModel = string(shared.ChatModelGPT4oMini)

// OpenAI is a backend using the official OpenAI SDK and its chat completions API.
type OpenAI struct {
	client *openai.Client
	name   string
	model  string
	clock  reactor.TimeProvider
}

// NewOpenAI creates a backend named "openai". baseURL may be empty to use the
// default endpoint. Extra request options are applied to every call.
func NewOpenAI(apiKey, model, baseURL string, opts ...option.RequestOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(append(clientOpts, opts...)...)

	if model == "" {
		model = OpenAIDefaultModel
	}
	return &OpenAI{
		client: &client,
		name:   "openai",
		model:  model,
		clock:  reactor.NewDefaultTimeProvider(),
	}, nil
}

// WithName sets the name reported in proposals and errors.
func (c *OpenAI) WithName(name string) *OpenAI {
	c.name = name
	return c
}

// Name implements reactor.Backend.
func (c *OpenAI) Name() string {
	return c.name
}

// Complete implements reactor.Backend.
func (c *OpenAI) Complete(
	ctx context.Context,
	req *reactor.CompletionRequest,
) (*reactor.Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(pickModel(req.Model, c.model)),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}

	start := c.clock.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := c.clock.Now().Sub(start)
	if err != nil {
		return nil, backendError(c.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, backendError(c.name, errEmptyResponse)
	}

	return &reactor.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: reactor.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		Duration: duration,
	}, nil
}

var _ reactor.Backend = (*OpenAI)(nil)

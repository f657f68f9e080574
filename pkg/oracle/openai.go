package oracle

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOracle talks to the OpenAI chat-completions API or any compatible
// endpoint (set BaseURL for local gateways).
type OpenAIOracle struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAI builds an oracle against api.openai.com, or against baseURL when
// it is non-empty.
func NewOpenAI(apiKey, baseURL, defaultModel string) (*OpenAIOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai oracle requires an API key")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}
	return &OpenAIOracle{
		client:       openai.NewClientWithConfig(cfg),
		defaultModel: defaultModel,
	}, nil
}

func (o *OpenAIOracle) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = o.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: float32(opts.Temperature),
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

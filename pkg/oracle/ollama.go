package oracle

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

const defaultOllamaModel = "qwen2.5-coder:14b"

// OllamaOracle runs against a local Ollama daemon. The endpoint is taken
// from OLLAMA_HOST, falling back to the daemon's default address.
type OllamaOracle struct {
	client       *ollama.Client
	defaultModel string
}

func NewOllama(defaultModel string) (*OllamaOracle, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}
	if defaultModel == "" {
		defaultModel = defaultOllamaModel
	}
	return &OllamaOracle{client: client, defaultModel: defaultModel}, nil
}

// Generate streams the chat response and accumulates it into a single
// string. Ollama is streaming-first, so this keeps memory flat while the
// caller still gets a complete response.
func (o *OllamaOracle) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = o.defaultModel
	}
	model = strings.TrimPrefix(model, "ollama:")

	ollamaMessages := make([]ollama.Message, len(messages))
	for i, m := range messages {
		ollamaMessages[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	options := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}

	req := &ollama.ChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Options:  options,
	}

	var response strings.Builder
	err := o.client.Chat(ctx, req, func(res ollama.ChatResponse) error {
		response.WriteString(res.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat: %v", ErrUnavailable, err)
	}
	return response.String(), nil
}

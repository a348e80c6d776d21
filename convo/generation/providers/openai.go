package providers

import (
	"context"

	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider. An empty baseURL targets api.openai.com.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAI) Name() string { return "openai" }

// Complete sends the rendered prompt as one user message.
func (p *OpenAI) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: in.Prompt},
		},
		MaxTokens:   opts.MaxNewTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return ports.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return ports.Completion{}, ErrNoChoices
	}

	return ports.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: &ports.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

var _ ports.Provider = (*OpenAI)(nil)

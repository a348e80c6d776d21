package providers

import (
	"context"
	"fmt"

	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
	"google.golang.org/genai"
)

// Gemini calls the Gemini API through the official genai SDK.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider. baseURL is optional.
func NewGemini(ctx context.Context, apiKey, baseURL string) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Complete sends the rendered prompt as a single text content.
func (g *Gemini) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	gc := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		gc.Temperature = genai.Ptr(opts.Temperature)
	}
	if opts.TopP > 0 {
		gc.TopP = genai.Ptr(opts.TopP)
	}
	if opts.MaxNewTokens > 0 {
		gc.MaxOutputTokens = int32(opts.MaxNewTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, opts.Model, genai.Text(in.Prompt), gc)
	if err != nil {
		return ports.Completion{}, err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return ports.Completion{}, ErrNoChoices
	}

	completion := ports.Completion{Text: resp.Text()}
	if md := resp.UsageMetadata; md != nil {
		completion.Usage = &ports.Usage{
			PromptTokens:     int(md.PromptTokenCount),
			CompletionTokens: int(md.CandidatesTokenCount),
			TotalTokens:      int(md.TotalTokenCount),
		}
	}
	return completion, nil
}

var _ ports.Provider = (*Gemini)(nil)

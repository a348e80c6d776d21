package generationports

import "context"

// PromptInput is what a provider turns into a completion. The conversation has
// already been rendered into Prompt.
type PromptInput struct {
	Prompt string
	Meta   map[string]string // lightweight metadata for tracing/caching keys
}

// Options controls sampling and limits.
type Options struct {
	Model        string
	MaxNewTokens int // 0 leaves the provider default
	Temperature  float32
	TopP         float32
}

// Usage captures token accounting for telemetry.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the provider's non-streaming response.
type Completion struct {
	Text  string
	Usage *Usage // optional usage information
}

// Provider is the abstraction for all LLM backends.
type Provider interface {
	Name() string
	Complete(ctx context.Context, in PromptInput, opts Options) (Completion, error)
}

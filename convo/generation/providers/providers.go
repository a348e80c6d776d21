// Package providers adapts vendor SDKs to the generation Provider port.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/convo/convo/config"
	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
)

// ErrNoChoices is returned when a provider answers without any candidate text.
var ErrNoChoices = errors.New("response contained no choices")

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, apiKey string) (ports.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGemini(ctx, apiKey, cfg.BaseURL)
	case "openai":
		return NewOpenAI(apiKey, cfg.BaseURL), nil
	default:
		return nil, &config.ConfigurationError{
			Field:  "llm.provider",
			Reason: fmt.Sprintf("unsupported provider %q", cfg.Provider),
		}
	}
}

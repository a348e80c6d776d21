package generation

import (
	"context"

	"github.com/ZanzyTHEbar/convo/convo/config"
	"github.com/ZanzyTHEbar/convo/convo/generation/adapters"
	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
	"github.com/ZanzyTHEbar/convo/convo/generation/providers"
	"github.com/rs/zerolog"
)

// Factory creates and wires generation components from configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewFactory creates a new generation factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGenerator resolves the credential, builds the configured provider and wires it
// into a Generator. A missing credential surfaces as *config.ConfigurationError.
func (f *Factory) CreateGenerator(ctx context.Context) (*Generator, error) {
	apiKey, err := f.cfg.LLM.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	provider, err := providers.New(ctx, f.cfg.LLM, apiKey)
	if err != nil {
		return nil, err
	}

	return f.CreateGeneratorWithProvider(provider, apiKey), nil
}

// CreateGeneratorWithProvider wires an already constructed provider.
func (f *Factory) CreateGeneratorWithProvider(provider ports.Provider, apiKey string) *Generator {
	var guardrails *Guardrails
	if f.cfg.Harness.EnableGuardrails {
		guardrails = NewGuardrails()
		guardrails.RedactLiteral(apiKey)
		if f.cfg.Harness.RedactCredentialPatterns {
			guardrails.AddCredentialFilters()
		}
	}

	f.logger.Debug().
		Str("provider", provider.Name()).
		Str("model", f.cfg.LLM.Model).
		Bool("cache", f.cfg.Harness.CacheEnabled).
		Bool("rate_limit", f.cfg.Harness.RateLimitEnabled).
		Msg("generator wired")

	return NewGenerator(
		provider,
		f.createCache(),
		f.createRateLimiter(),
		f.createTracer(),
		guardrails,
		f.createPolicy(),
	)
}

func (f *Factory) createCache() ports.Cache {
	if !f.cfg.Harness.CacheEnabled {
		return adapters.NoopCache{}
	}
	return adapters.NewReplyCache(f.cfg.Harness.CacheCapacity)
}

func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.Harness.RateLimitEnabled || f.cfg.Harness.RateLimitCapacity <= 0 {
		return adapters.NoopRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.Harness.RateLimitCapacity, f.cfg.Harness.RateLimitRefillRate)
}

func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Harness.EnableTracing {
		return adapters.NoopTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

func (f *Factory) createPolicy() Policy {
	return Policy{
		Options: ports.Options{
			Model:        f.cfg.LLM.Model,
			MaxNewTokens: f.cfg.LLM.MaxNewTokens,
			Temperature:  f.cfg.LLM.Temperature,
			TopP:         f.cfg.LLM.TopP,
		},
		Timeout:         f.cfg.LLM.Timeout,
		CacheTTLSeconds: f.cfg.Harness.CacheTTLSeconds,
	}
}

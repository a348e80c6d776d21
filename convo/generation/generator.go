// Package generation turns a rendered prompt into a model reply through a provider,
// wrapped with rate limiting, caching, tracing and output guardrails.
package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
)

// Policy controls a single generation call.
type Policy struct {
	Options         ports.Options
	Timeout         time.Duration // provider call deadline; 0 disables
	CacheTTLSeconds int
}

// Reply is the outcome of a successful generation.
type Reply struct {
	Text     string
	Usage    *ports.Usage `json:",omitempty"`
	Cached   bool         `json:"-"`
	Duration time.Duration
}

// Generator is the single entry point the session uses to talk to a model.
type Generator struct {
	provider   ports.Provider
	cache      ports.Cache
	limiter    ports.RateLimiter
	tracer     ports.Tracer
	guardrails *Guardrails // nil disables sanitizing
	policy     Policy
}

// NewGenerator creates a Generator. cache, limiter and tracer must be non-nil; use the
// no-op adapters to disable them.
func NewGenerator(
	provider ports.Provider,
	cache ports.Cache,
	limiter ports.RateLimiter,
	tracer ports.Tracer,
	guardrails *Guardrails,
	policy Policy,
) *Generator {
	return &Generator{
		provider:   provider,
		cache:      cache,
		limiter:    limiter,
		tracer:     tracer,
		guardrails: guardrails,
		policy:     policy,
	}
}

// Model returns the model name requests are sent to.
func (g *Generator) Model() string { return g.policy.Options.Model }

// Generate sends prompt to the provider. Every failure is returned as *RequestError.
func (g *Generator) Generate(ctx context.Context, prompt string) (reply Reply, err error) {
	if g.provider == nil {
		return Reply{}, &RequestError{Err: ErrNoProvider}
	}
	name, model := g.provider.Name(), g.policy.Options.Model
	wrap := func(err error) error {
		return &RequestError{Provider: name, Model: model, Err: err}
	}

	ctx, finish := g.tracer.StartSpan(ctx, "generate", map[string]any{
		"provider":     name,
		"model":        model,
		"prompt_chars": len(prompt),
	})
	defer func() { finish(err) }()

	// cache hits do not spend rate-limit tokens
	key := cacheKey(name, model, prompt)
	if cached, ok := g.cache.Get(ctx, key); ok {
		var r Reply
		if jerr := json.Unmarshal(cached, &r); jerr == nil {
			g.tracer.Event(ctx, "cache_hit", map[string]any{"key": key})
			r.Cached = true
			return r, nil
		}
		_ = g.cache.Delete(ctx, key)
	}

	release, err := g.limiter.Acquire(ctx, name)
	if err != nil {
		return Reply{}, wrap(err)
	}
	defer release()

	callCtx := ctx
	if g.policy.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.policy.Timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := g.provider.Complete(callCtx, ports.PromptInput{
		Prompt: prompt,
		Meta:   map[string]string{"cache_key": key},
	}, g.policy.Options)
	if err != nil {
		return Reply{}, wrap(err)
	}
	if strings.TrimSpace(completion.Text) == "" {
		return Reply{}, wrap(ErrEmptyReply)
	}

	text := completion.Text
	if g.guardrails != nil {
		text = g.guardrails.SanitizeOutput(text)
	}
	reply = Reply{Text: text, Usage: completion.Usage, Duration: time.Since(start)}

	if data, jerr := json.Marshal(reply); jerr == nil {
		if serr := g.cache.Set(ctx, key, data, g.policy.CacheTTLSeconds); serr != nil {
			g.tracer.Event(ctx, "cache_error", map[string]any{"error": serr.Error()})
		}
	}

	return reply, nil
}

// cacheKey derives a deterministic key from everything that shapes the reply.
func cacheKey(provider, model, prompt string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%s", provider, model, prompt)))
	return "gen:" + hex.EncodeToString(sum[:])
}

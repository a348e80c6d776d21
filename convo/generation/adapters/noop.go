package adapters

import (
	"context"

	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
)

// NoopCache implements Cache with no-op behavior for a disabled cache.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (NoopCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (NoopCache) Delete(ctx context.Context, key string) error { return nil }

// NoopRateLimiter implements RateLimiter with no-op behavior.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Acquire(ctx context.Context, key string) (release func(), err error) {
	return func() {}, nil
}

// NoopTracer implements Tracer with no-op behavior.
type NoopTracer struct{}

func (NoopTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (NoopTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

var (
	_ ports.Cache       = NoopCache{}
	_ ports.RateLimiter = NoopRateLimiter{}
	_ ports.Tracer      = NoopTracer{}
)

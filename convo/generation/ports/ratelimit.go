package generationports

import "context"

// RateLimiter bounds the rate of calls to a provider.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledProvider wraps a Provider with a shared rate limiter so that
// concurrent report jobs cannot exceed the upstream API's request budget.
// The limiter blocks until a slot is available or the context is canceled.
type ThrottledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewThrottledProvider limits calls to rps requests per second with the
// given burst. A nil-safe default of 1 rps / burst 1 applies when rps <= 0.
func NewThrottledProvider(inner Provider, rps float64, burst int) *ThrottledProvider {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *ThrottledProvider) Name() string { return t.inner.Name() }

func (t *ThrottledProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	return t.inner.Generate(ctx, req)
}

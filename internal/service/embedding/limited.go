package embedding

import (
	"context"
	"fmt"

	"github.com/substratehq/substrate/internal/ratelimit"
)

// LimitedProvider wraps a Provider with an outbound rate limiter so a burst
// of profile indexing cannot exhaust a metered embedding API's quota. Each
// provider call, single or batch, consumes one token.
type LimitedProvider struct {
	inner   Provider
	limiter ratelimit.Limiter
	key     string
}

// NewLimitedProvider wraps inner so every call is checked against limiter
// under the given key.
func NewLimitedProvider(inner Provider, limiter ratelimit.Limiter, key string) *LimitedProvider {
	return &LimitedProvider{inner: inner, limiter: limiter, key: key}
}

// Dimensions returns the underlying provider's vector size.
func (p *LimitedProvider) Dimensions() int {
	return p.inner.Dimensions()
}

// Embed forwards to the underlying provider when the limiter permits it.
func (p *LimitedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	return p.inner.Embed(ctx, text)
}

// EmbedBatch forwards to the underlying provider when the limiter permits it.
func (p *LimitedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	return p.inner.EmbedBatch(ctx, texts)
}

func (p *LimitedProvider) check(ctx context.Context) error {
	ok, err := p.limiter.Allow(ctx, p.key)
	if err != nil {
		// Limiter malfunction fails open per the Limiter contract.
		return nil
	}
	if !ok {
		return fmt.Errorf("embedding: rate limited (%s), try again later", p.key)
	}
	return nil
}

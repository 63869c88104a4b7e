package salesforce

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoginFunc performs one authentication attempt.
type LoginFunc func(ctx context.Context) (*Client, error)

// Provider is the process-wide holder of the authenticated client. The
// client is created on first use and cached with no expiry; tool calls may
// run concurrently, so first-use initialization goes through singleflight:
// callers racing on the first call share one authentication attempt and
// observe the same handle or the same failure. A failed attempt leaves the
// holder uninitialized, so the next call retries from scratch.
type Provider struct {
	login LoginFunc

	group singleflight.Group
	mu    sync.RWMutex
	cache *Client
}

// NewProvider returns a Provider that authenticates with login on first use.
func NewProvider(login LoginFunc) *Provider {
	return &Provider{login: login}
}

// Get returns the cached client, authenticating first if needed.
func (p *Provider) Get(ctx context.Context) (*Client, error) {
	if c := p.cached(); c != nil {
		return c, nil
	}

	v, err, _ := p.group.Do("client", func() (any, error) {
		// A flight that just finished may have populated the cache between
		// our fast-path check and joining this flight.
		if c := p.cached(); c != nil {
			return c, nil
		}
		c, err := p.login(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache = c
		p.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

func (p *Provider) cached() *Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cache
}

// Package entitlement caches per-offer access checks so repeated gatekeeping
// during browsing does not hammer the commerce backend. The cache is
// invalidated whenever subscription state is reconciled or the session ends.
package entitlement

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidgate/vidgate/internal/model"
	"github.com/vidgate/vidgate/internal/provider"
)

// Session supplies the current credentials, if any.
type Session interface {
	Credentials() (accessToken, accountID string, ok bool)
}

// Checker answers "may this session view this offer" with a cached verdict.
type Checker struct {
	mu       sync.RWMutex
	cache    map[string]bool
	resolver *provider.Resolver
	session  Session
}

func NewChecker(resolver *provider.Resolver, session Session) *Checker {
	return &Checker{
		cache:    make(map[string]bool),
		resolver: resolver,
		session:  session,
	}
}

// IsEntitled reports whether the logged-in account may view offerID,
// consulting the commerce backend on a cache miss.
func (c *Checker) IsEntitled(ctx context.Context, offerID string) (bool, error) {
	token, _, ok := c.session.Credentials()
	if !ok {
		return false, model.ErrUnauthenticated
	}

	c.mu.RLock()
	granted, hit := c.cache[offerID]
	c.mu.RUnlock()
	if hit {
		return granted, nil
	}

	granted, err := c.resolver.Commerce().GetEntitlements(ctx, token, offerID)
	if err != nil {
		return false, fmt.Errorf("check entitlement: %w", err)
	}

	c.mu.Lock()
	c.cache[offerID] = granted
	c.mu.Unlock()
	return granted, nil
}

// Invalidate drops every cached verdict so the next check re-verifies
// against fresh subscription state.
func (c *Checker) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]bool)
	c.mu.Unlock()
}

package provider

import (
	"fmt"
	"sync"
)

// Resolver hands out the capability services of the single configured
// integration. Every component assumes providers are resolvable once the
// client has started, so asking before Configure is a programming error and
// panics with a descriptive message rather than returning nil.
type Resolver struct {
	mu     sync.RWMutex
	bundle *Bundle
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Configure binds the integration's capability bundle. Called exactly once
// at startup, before any component runs.
func (r *Resolver) Configure(b Bundle) {
	r.mu.Lock()
	r.bundle = &b
	r.mu.Unlock()
}

// Ready reports whether Configure has run.
func (r *Resolver) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bundle != nil
}

func (r *Resolver) get(capability string) *Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.bundle == nil {
		panic(fmt.Sprintf("provider: %s requested before integration configured", capability))
	}
	return r.bundle
}

// Name returns the configured integration identifier.
func (r *Resolver) Name() string { return r.get("integration name").Name }

func (r *Resolver) Identity() IdentityService         { return r.get("identity service").Identity }
func (r *Resolver) Commerce() CommerceService         { return r.get("commerce service").Commerce }
func (r *Resolver) Subscription() SubscriptionService { return r.get("subscription service").Subscription }
func (r *Resolver) Profile() ProfileService           { return r.get("profile service").Profile }
func (r *Resolver) Features() Features                { return r.get("feature flags").Features }

package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vidgate/vidgate/internal/model"
	"github.com/vidgate/vidgate/internal/provider"
)

type fakeSession struct{ ok bool }

func (f *fakeSession) Credentials() (string, string, bool) {
	if !f.ok {
		return "", "", false
	}
	return "tok", "acct-1", true
}

type fakeCommerce struct {
	provider.CommerceService

	mu      sync.Mutex
	granted map[string]bool
	calls   int
}

func (f *fakeCommerce) GetEntitlements(ctx context.Context, accessToken, offerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.granted[offerID], nil
}

func setupChecker(t *testing.T, sess *fakeSession) (*Checker, *fakeCommerce) {
	t.Helper()
	com := &fakeCommerce{granted: map[string]bool{"offer-1": true}}
	resolver := provider.NewResolver()
	resolver.Configure(provider.Bundle{Name: "fake", Commerce: com})
	return NewChecker(resolver, sess), com
}

func TestIsEntitledRequiresSession(t *testing.T) {
	c, _ := setupChecker(t, &fakeSession{ok: false})

	if _, err := c.IsEntitled(context.Background(), "offer-1"); !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestIsEntitledCachesVerdicts(t *testing.T) {
	c, com := setupChecker(t, &fakeSession{ok: true})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		granted, err := c.IsEntitled(ctx, "offer-1")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !granted {
			t.Fatalf("check %d: expected granted", i)
		}
	}

	com.mu.Lock()
	defer com.mu.Unlock()
	if com.calls != 1 {
		t.Errorf("backend calls = %d, want 1", com.calls)
	}
}

func TestIsEntitledCachesDenialsToo(t *testing.T) {
	c, com := setupChecker(t, &fakeSession{ok: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		granted, err := c.IsEntitled(ctx, "offer-locked")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if granted {
			t.Fatalf("check %d: expected denied", i)
		}
	}

	com.mu.Lock()
	defer com.mu.Unlock()
	if com.calls != 1 {
		t.Errorf("backend calls = %d, want 1", com.calls)
	}
}

func TestInvalidateForcesReverification(t *testing.T) {
	c, com := setupChecker(t, &fakeSession{ok: true})
	ctx := context.Background()

	if _, err := c.IsEntitled(ctx, "offer-1"); err != nil {
		t.Fatalf("check: %v", err)
	}

	// Subscription state changed backend-side; the cached verdict flips.
	com.mu.Lock()
	com.granted["offer-1"] = false
	com.mu.Unlock()
	c.Invalidate()

	granted, err := c.IsEntitled(ctx, "offer-1")
	if err != nil {
		t.Fatalf("check after invalidate: %v", err)
	}
	if granted {
		t.Error("expected fresh denial after invalidate")
	}
	com.mu.Lock()
	defer com.mu.Unlock()
	if com.calls != 2 {
		t.Errorf("backend calls = %d, want 2", com.calls)
	}
}

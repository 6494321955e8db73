// Package checkout owns subscription, transaction and payment-method state
// and keeps it consistent with a backend that settles monetary operations
// asynchronously. All three reads are committed as one snapshot; a delayed
// reconciliation tolerates backend processing lag after a purchase,
// cancellation or plan switch.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/vidgate/vidgate/internal/model"
	"github.com/vidgate/vidgate/internal/provider"
)

// Backend settlement lag allowances after monetary operations.
const (
	statusChangeDelay = 2 * time.Second
	planSwitchDelay   = 7500 * time.Millisecond
)

// Session supplies credentials and the session epoch. Delayed work re-checks
// both so a reconciliation scheduled before a logout never writes state for
// the now-anonymous user.
type Session interface {
	Credentials() (accessToken, accountID string, ok bool)
	Epoch() uint64
}

// Invalidator drops cached entitlement verdicts before a commit.
type Invalidator interface {
	Invalidate()
}

// Snapshot is the atomic reconciliation unit. The three collections are
// always from the same fetch round, never mixed across points in time.
type Snapshot struct {
	Subscription  *model.Subscription
	Transactions  []model.Transaction
	PaymentMethod *model.PaymentMethod
	// PendingOffer is the resolved target of an in-flight plan switch, when
	// the subscription carries one.
	PendingOffer *model.Offer
}

// Controller is the subscription reconciler plus the checkout operations
// that trigger it.
type Controller struct {
	logger       *slog.Logger
	resolver     *provider.Resolver
	session      Session
	entitlements Invalidator

	mu   sync.RWMutex
	snap Snapshot
}

func NewController(resolver *provider.Resolver, session Session, ents Invalidator, logger *slog.Logger) *Controller {
	return &Controller{
		logger:       logger,
		resolver:     resolver,
		session:      session,
		entitlements: ents,
	}
}

// Snapshot returns the last committed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// HasSubscription reports whether a subscription is currently known.
func (c *Controller) HasSubscription() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Subscription != nil
}

// Clear drops all reconciled state. Called on logout.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.snap = Snapshot{}
	c.mu.Unlock()
}

// Reconcile fetches subscription, transaction history and the active payment
// method as one consistent snapshot and commits all three atomically. A
// positive delay waits out backend processing lag first; callers that don't
// care to wait run it in a goroutine. If the session ends during the delay
// the reconciliation no-ops.
func (c *Controller) Reconcile(ctx context.Context, delay time.Duration) error {
	epoch := c.session.Epoch()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	token, accountID, ok := c.session.Credentials()
	if !ok || c.session.Epoch() != epoch {
		c.logger.Debug("reconcile skipped, session changed")
		return nil
	}

	svc := c.resolver.Subscription()

	var (
		sub *model.Subscription
		txs []model.Transaction
		pm  *model.PaymentMethod
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.withRetry(gctx, func(ctx context.Context) error {
			var err error
			sub, err = svc.GetActiveSubscription(ctx, token, accountID)
			return err
		})
	})
	g.Go(func() error {
		return c.withRetry(gctx, func(ctx context.Context) error {
			var err error
			txs, err = svc.GetAllTransactions(ctx, token, accountID)
			return err
		})
	})
	g.Go(func() error {
		return c.withRetry(gctx, func(ctx context.Context) error {
			var err error
			pm, err = svc.GetActivePayment(ctx, token, accountID)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		// No partial commit: prior snapshot stays intact.
		return fmt.Errorf("reconcile: %w", err)
	}

	// Enrichment only: a failed pending-offer lookup never fails the
	// reconciliation.
	var pending *model.Offer
	if sub != nil && sub.PendingSwitchID != "" {
		offer, err := c.resolver.Commerce().GetOffer(ctx, sub.PendingSwitchID)
		if err != nil {
			c.logger.Warn("resolve pending offer", "switch_id", sub.PendingSwitchID, "error", err)
		} else {
			pending = offer
		}
	}

	if c.entitlements != nil {
		c.entitlements.Invalidate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A logout during the fetches must not reinstate state Clear just dropped.
	if c.session.Epoch() != epoch {
		c.logger.Debug("reconcile abandoned, session changed")
		return nil
	}
	c.snap = Snapshot{
		Subscription:  sub,
		Transactions:  txs,
		PaymentMethod: pm,
		PendingOffer:  pending,
	}
	return nil
}

// withRetry retries transient failures with capped exponential backoff
// inside a single reconciliation attempt.
func (c *Controller) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(250*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if model.IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

package checkout

import (
	"context"
	"time"

	"github.com/vidgate/vidgate/internal/model"
)

// CreateOrder starts a checkout for an offer.
func (c *Controller) CreateOrder(ctx context.Context, offerID string) (*model.Order, error) {
	token, accountID, ok := c.session.Credentials()
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	return c.resolver.Commerce().CreateOrder(ctx, token, accountID, offerID)
}

// UpdateOrder applies a payment method or coupon to an open order.
func (c *Controller) UpdateOrder(ctx context.Context, order model.Order, paymentMethodID, couponCode string) (*model.Order, error) {
	token, _, ok := c.session.Credentials()
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	return c.resolver.Commerce().UpdateOrder(ctx, token, order, paymentMethodID, couponCode)
}

// UpdateSubscriptionStatus cancels or reactivates the subscription, then
// reconciles after the backend's settlement lag.
func (c *Controller) UpdateSubscriptionStatus(ctx context.Context, status string) error {
	token, accountID, ok := c.session.Credentials()
	if !ok {
		return model.ErrUnauthenticated
	}
	if err := c.resolver.Subscription().UpdateSubscription(ctx, token, accountID, status); err != nil {
		return err
	}
	c.reconcileLater(statusChangeDelay)
	return nil
}

// SwitchSubscription starts an upgrade or downgrade. The pending switch is
// settled backend-side, so reconciliation waits the longer plan-switch lag.
func (c *Controller) SwitchSubscription(ctx context.Context, toOfferID, direction string) (string, error) {
	token, accountID, ok := c.session.Credentials()
	if !ok {
		return "", model.ErrUnauthenticated
	}
	pendingID, err := c.resolver.Subscription().SwitchSubscription(ctx, token, accountID, toOfferID, direction)
	if err != nil {
		return "", err
	}
	c.reconcileLater(planSwitchDelay)
	return pendingID, nil
}

// UpdateCardDetails returns the hosted page for replacing the card on file.
func (c *Controller) UpdateCardDetails(ctx context.Context, returnURL string) (string, error) {
	token, accountID, ok := c.session.Credentials()
	if !ok {
		return "", model.ErrUnauthenticated
	}
	return c.resolver.Subscription().UpdateCardDetails(ctx, token, accountID, returnURL)
}

// FetchReceipt retrieves a transaction receipt for families that render them.
func (c *Controller) FetchReceipt(ctx context.Context, transactionID string) ([]byte, error) {
	token, _, ok := c.session.Credentials()
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	return c.resolver.Subscription().FetchReceipt(ctx, token, transactionID)
}

// reconcileLater schedules a fire-and-forget delayed reconciliation. The
// delay runs on a background context: the triggering request finishing (or
// failing) must not cancel it.
func (c *Controller) reconcileLater(delay time.Duration) {
	go func() {
		if err := c.Reconcile(context.Background(), delay); err != nil {
			c.logger.Warn("delayed reconcile", "error", err)
		}
	}()
}

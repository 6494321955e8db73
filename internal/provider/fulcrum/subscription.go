package fulcrum

import (
	"context"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"

	"github.com/vidgate/vidgate/internal/model"
)

// Subscription implements provider.SubscriptionService. State reads come from
// fulcrum's REST API (which mirrors Stripe webhooks server-side); the card
// update flow is the Stripe billing portal.
type Subscription struct {
	client *Client
}

func NewSubscription(client *Client) *Subscription {
	return &Subscription{client: client}
}

func (s *Subscription) GetActiveSubscription(ctx context.Context, accessToken, accountID string) (*model.Subscription, error) {
	var resp struct {
		Subscription *model.Subscription `json:"subscription"`
	}
	err := s.client.request(ctx, http.MethodGet, "/api/accounts/"+accountID+"/subscription", accessToken, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return resp.Subscription, nil
}

func (s *Subscription) GetAllTransactions(ctx context.Context, accessToken, accountID string) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := s.client.request(ctx, http.MethodGet, "/api/accounts/"+accountID+"/transactions", accessToken, nil, &txs)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return txs, nil
}

func (s *Subscription) GetActivePayment(ctx context.Context, accessToken, accountID string) (*model.PaymentMethod, error) {
	var resp struct {
		PaymentMethod *model.PaymentMethod `json:"payment_method"`
	}
	err := s.client.request(ctx, http.MethodGet, "/api/accounts/"+accountID+"/payment-method", accessToken, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get active payment: %w", err)
	}
	return resp.PaymentMethod, nil
}

func (s *Subscription) UpdateSubscription(ctx context.Context, accessToken, accountID, status string) error {
	err := s.client.request(ctx, http.MethodPut, "/api/accounts/"+accountID+"/subscription", accessToken, map[string]string{
		"status": status,
	}, nil)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

func (s *Subscription) SwitchSubscription(ctx context.Context, accessToken, accountID, toOfferID, direction string) (string, error) {
	var resp struct {
		PendingSwitchID string `json:"pending_switch_id"`
	}
	err := s.client.request(ctx, http.MethodPost, "/api/accounts/"+accountID+"/subscription/switch", accessToken, map[string]string{
		"to_offer_id": toOfferID,
		"direction":   direction,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("switch subscription: %w", err)
	}
	return resp.PendingSwitchID, nil
}

// UpdateCardDetails opens a Stripe billing portal session for the account's
// Stripe customer and returns its URL.
func (s *Subscription) UpdateCardDetails(ctx context.Context, accessToken, accountID, returnURL string) (string, error) {
	var billing struct {
		StripeCustomerID string `json:"stripe_customer_id"`
	}
	err := s.client.request(ctx, http.MethodGet, "/api/accounts/"+accountID+"/billing", accessToken, nil, &billing)
	if err != nil {
		return "", fmt.Errorf("lookup stripe customer: %w", err)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(billing.StripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *Subscription) FetchReceipt(ctx context.Context, accessToken, transactionID string) ([]byte, error) {
	return nil, fmt.Errorf("fulcrum does not render receipts: %w", model.ErrUnconfigured)
}

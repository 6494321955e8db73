package nimbus

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vidgate/vidgate/internal/model"
)

// Subscription implements provider.SubscriptionService against the nimbus
// REST API.
type Subscription struct {
	client *Client
}

func NewSubscription(client *Client) *Subscription {
	return &Subscription{client: client}
}

func (s *Subscription) GetActiveSubscription(ctx context.Context, accessToken, accountID string) (*model.Subscription, error) {
	var sub model.Subscription
	path := "/v1/accounts/" + accountID + "/subscription"
	err := s.client.do(ctx, http.MethodGet, path, accessToken, nil, &sub)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	return &sub, nil
}

func (s *Subscription) GetAllTransactions(ctx context.Context, accessToken, accountID string) ([]model.Transaction, error) {
	var resp struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	path := "/v1/accounts/" + accountID + "/transactions"
	if err := s.client.do(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return resp.Transactions, nil
}

func (s *Subscription) GetActivePayment(ctx context.Context, accessToken, accountID string) (*model.PaymentMethod, error) {
	var pm model.PaymentMethod
	path := "/v1/accounts/" + accountID + "/payment"
	err := s.client.do(ctx, http.MethodGet, path, accessToken, nil, &pm)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active payment: %w", err)
	}
	return &pm, nil
}

func (s *Subscription) UpdateSubscription(ctx context.Context, accessToken, accountID, status string) error {
	path := "/v1/accounts/" + accountID + "/subscription"
	err := s.client.do(ctx, http.MethodPatch, path, accessToken, map[string]string{"status": status}, nil)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

func (s *Subscription) SwitchSubscription(ctx context.Context, accessToken, accountID, toOfferID, direction string) (string, error) {
	var resp struct {
		PendingSwitchID string `json:"pending_switch_id"`
	}
	path := "/v1/accounts/" + accountID + "/subscription/switch"
	err := s.client.do(ctx, http.MethodPost, path, accessToken, map[string]string{
		"to_offer_id": toOfferID,
		"direction":   direction,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("switch subscription: %w", err)
	}
	return resp.PendingSwitchID, nil
}

func (s *Subscription) UpdateCardDetails(ctx context.Context, accessToken, accountID, returnURL string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	path := "/v1/accounts/" + accountID + "/payment/card"
	err := s.client.do(ctx, http.MethodPost, path, accessToken, map[string]string{"return_url": returnURL}, &resp)
	if err != nil {
		return "", fmt.Errorf("update card details: %w", err)
	}
	return resp.URL, nil
}

func (s *Subscription) FetchReceipt(ctx context.Context, accessToken, transactionID string) ([]byte, error) {
	data, err := s.client.raw(ctx, http.MethodGet, "/v1/transactions/"+transactionID+"/receipt", accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch receipt: %w", err)
	}
	return data, nil
}

package nimbus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/vidgate/vidgate/internal/model"
)

// Commerce implements provider.CommerceService against the nimbus REST API.
type Commerce struct {
	client *Client
}

func NewCommerce(client *Client) *Commerce {
	return &Commerce{client: client}
}

func (c *Commerce) GetOffer(ctx context.Context, offerID string) (*model.Offer, error) {
	var offer model.Offer
	if err := c.client.do(ctx, http.MethodGet, "/v1/offers/"+offerID, "", nil, &offer); err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return &offer, nil
}

func (c *Commerce) GetOffers(ctx context.Context, offerIDs []string) ([]model.Offer, error) {
	var resp struct {
		Offers []model.Offer `json:"offers"`
	}
	path := "/v1/offers?ids=" + url.QueryEscape(strings.Join(offerIDs, ","))
	if err := c.client.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("get offers: %w", err)
	}
	return resp.Offers, nil
}

func (c *Commerce) CreateOrder(ctx context.Context, accessToken, accountID, offerID string) (*model.Order, error) {
	var order model.Order
	err := c.client.do(ctx, http.MethodPost, "/v1/orders", accessToken, map[string]string{
		"account_id": accountID,
		"offer_id":   offerID,
	}, &order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

func (c *Commerce) UpdateOrder(ctx context.Context, accessToken string, order model.Order, paymentMethodID, couponCode string) (*model.Order, error) {
	var updated model.Order
	err := c.client.do(ctx, http.MethodPatch, "/v1/orders/"+order.ID, accessToken, map[string]string{
		"payment_method_id": paymentMethodID,
		"coupon_code":       couponCode,
	}, &updated)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &updated, nil
}

func (c *Commerce) GetPaymentMethods(ctx context.Context, accessToken string) ([]model.PaymentMethod, error) {
	var resp struct {
		PaymentMethods []model.PaymentMethod `json:"payment_methods"`
	}
	if err := c.client.do(ctx, http.MethodGet, "/v1/payment-methods", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get payment methods: %w", err)
	}
	return resp.PaymentMethods, nil
}

func (c *Commerce) CreatePaymentSession(ctx context.Context, accessToken, orderID string) (*model.PaymentSession, error) {
	var ps model.PaymentSession
	path := "/v1/orders/" + orderID + "/payment-session"
	if err := c.client.do(ctx, http.MethodPost, path, accessToken, nil, &ps); err != nil {
		return nil, fmt.Errorf("create payment session: %w", err)
	}
	return &ps, nil
}

func (c *Commerce) FinalizePayment(ctx context.Context, accessToken, orderID string) error {
	path := "/v1/orders/" + orderID + "/payment"
	if err := c.client.do(ctx, http.MethodPost, path, accessToken, nil, nil); err != nil {
		return fmt.Errorf("finalize payment: %w", err)
	}
	return nil
}

func (c *Commerce) GetEntitlements(ctx context.Context, accessToken, offerID string) (bool, error) {
	var resp struct {
		AccessGranted bool `json:"access_granted"`
	}
	if err := c.client.do(ctx, http.MethodGet, "/v1/entitlements/"+offerID, accessToken, nil, &resp); err != nil {
		return false, fmt.Errorf("get entitlements: %w", err)
	}
	return resp.AccessGranted, nil
}

package fulcrum

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	checksession "github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/vidgate/vidgate/internal/model"
)

// Commerce implements provider.CommerceService. Offers and entitlements come
// from fulcrum's own REST API; the money flow is Stripe-hosted checkout.
type Commerce struct {
	client *Client
}

func NewCommerce(client *Client) *Commerce {
	return &Commerce{client: client}
}

func (c *Commerce) GetOffer(ctx context.Context, offerID string) (*model.Offer, error) {
	var offer model.Offer
	if err := c.client.request(ctx, http.MethodGet, "/api/offers/"+offerID, "", nil, &offer); err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	return &offer, nil
}

func (c *Commerce) GetOffers(ctx context.Context, offerIDs []string) ([]model.Offer, error) {
	var offers []model.Offer
	path := "/api/offers?ids=" + url.QueryEscape(strings.Join(offerIDs, ","))
	if err := c.client.request(ctx, http.MethodGet, path, "", nil, &offers); err != nil {
		return nil, fmt.Errorf("get offers: %w", err)
	}
	return offers, nil
}

// CreateOrder opens a Stripe checkout session for the offer's price and
// returns an order whose PaymentURL is the hosted checkout page.
func (c *Commerce) CreateOrder(ctx context.Context, accessToken, accountID, offerID string) (*model.Order, error) {
	priceID, ok := c.client.cfg.PriceIDs[offerID]
	if !ok {
		return nil, fmt.Errorf("create order: no price configured for offer %q", offerID)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(accountID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(c.client.cfg.SuccessURL),
		CancelURL:           stripe.String(c.client.cfg.CancelURL),
	}
	params.Context = ctx
	sess, err := checksession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &model.Order{
		ID:         sess.ID,
		OfferID:    offerID,
		TotalPrice: float64(sess.AmountTotal) / 100,
		Currency:   strings.ToUpper(string(sess.Currency)),
		PaymentURL: sess.URL,
	}, nil
}

// UpdateOrder applies a coupon or payment method server-side. Stripe-hosted
// checkout handles both on its own page, so this is a passthrough to the
// backend's order record.
func (c *Commerce) UpdateOrder(ctx context.Context, accessToken string, order model.Order, paymentMethodID, couponCode string) (*model.Order, error) {
	var updated model.Order
	err := c.client.request(ctx, http.MethodPut, "/api/orders/"+order.ID, accessToken, map[string]string{
		"payment_method_id": paymentMethodID,
		"coupon_code":       couponCode,
	}, &updated)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return &updated, nil
}

func (c *Commerce) GetPaymentMethods(ctx context.Context, accessToken string) ([]model.PaymentMethod, error) {
	var methods []model.PaymentMethod
	if err := c.client.request(ctx, http.MethodGet, "/api/payment-methods", accessToken, nil, &methods); err != nil {
		return nil, fmt.Errorf("get payment methods: %w", err)
	}
	return methods, nil
}

func (c *Commerce) CreatePaymentSession(ctx context.Context, accessToken, orderID string) (*model.PaymentSession, error) {
	sess, err := checksession.Get(orderID, &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return &model.PaymentSession{ID: sess.ID, URL: sess.URL}, nil
}

func (c *Commerce) FinalizePayment(ctx context.Context, accessToken, orderID string) error {
	err := c.client.request(ctx, http.MethodPost, "/api/orders/"+orderID+"/confirm", accessToken, nil, nil)
	if err != nil {
		return fmt.Errorf("finalize payment: %w", err)
	}
	return nil
}

func (c *Commerce) GetEntitlements(ctx context.Context, accessToken, offerID string) (bool, error) {
	var resp struct {
		AccessGranted bool `json:"access_granted"`
	}
	err := c.client.request(ctx, http.MethodGet, "/api/entitlements/"+offerID, accessToken, nil, &resp)
	if err != nil {
		return false, fmt.Errorf("get entitlements: %w", err)
	}
	return resp.AccessGranted, nil
}

package model

import "time"

// Subscription statuses as reported by the subscription capability.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription is the single tracked subscription for the logged-in account.
// A non-empty PendingSwitchID signals an in-flight plan switch whose target
// offer is resolved by the next reconciliation.
type Subscription struct {
	ID                  string    `json:"id"`
	Status              string    `json:"status"`
	OfferID             string    `json:"offer_id"`
	ExpiresAt           time.Time `json:"expires_at"`
	NextPaymentPrice    float64   `json:"next_payment_price"`
	NextPaymentCurrency string    `json:"next_payment_currency"`
	PendingSwitchID     string    `json:"pending_switch_id,omitempty"`
	UnsubscribeURL      string    `json:"unsubscribe_url,omitempty"`
}

// Transaction is one payment history entry.
type Transaction struct {
	ID         string    `json:"id"`
	OfferID    string    `json:"offer_id"`
	OfferTitle string    `json:"offer_title"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	Date       time.Time `json:"date"`
	ReceiptURL string    `json:"receipt_url,omitempty"`
}

// PaymentMethod is the account's active payment instrument.
type PaymentMethod struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	CardBrand    string `json:"card_brand,omitempty"`
	CardLastFour string `json:"card_last_four,omitempty"`
	CardExpiry   string `json:"card_expiry,omitempty"`
}

// Offer is a priced plan.
type Offer struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
}

// Order is a checkout in progress.
type Order struct {
	ID              string  `json:"id"`
	OfferID         string  `json:"offer_id"`
	TotalPrice      float64 `json:"total_price"`
	Currency        string  `json:"currency"`
	PaymentMethodID string  `json:"payment_method_id,omitempty"`
	DiscountApplied bool    `json:"discount_applied"`
	PaymentURL      string  `json:"payment_url,omitempty"`
}

// PaymentSession is a provider-side payment flow handle (hosted page or
// client secret, depending on the family).
type PaymentSession struct {
	ID           string `json:"id"`
	URL          string `json:"url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

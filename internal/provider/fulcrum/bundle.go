package fulcrum

import (
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/vidgate/vidgate/internal/provider"
)

// NewBundle wires the fulcrum capability set. No refresh tokens, no
// account-mirrored shelves, no receipts; subscriptions and card updates are
// supported through Stripe.
func NewBundle(cfg Config) provider.Bundle {
	stripe.Key = cfg.StripeSecretKey
	client := NewClient(cfg)
	return provider.Bundle{
		Name:         "fulcrum",
		Identity:     NewIdentity(client),
		Commerce:     NewCommerce(client),
		Subscription: NewSubscription(client),
		Features: provider.Features{
			CanRefreshToken:        false,
			SupportsSubscriptions:  true,
			SupportsExternalData:   false,
			CanRenewSubscription:   false,
			CanUpdatePaymentMethod: true,
			CanShowReceipts:        false,
		},
	}
}

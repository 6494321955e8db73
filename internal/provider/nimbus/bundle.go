package nimbus

import "github.com/vidgate/vidgate/internal/provider"

// NewBundle wires the full nimbus capability set. nimbus supports every
// optional feature: refresh tokens, subscriptions, account-mirrored shelves,
// card updates and receipts.
func NewBundle(cfg Config) provider.Bundle {
	client := NewClient(cfg)
	return provider.Bundle{
		Name:         "nimbus",
		Identity:     NewIdentity(client),
		Commerce:     NewCommerce(client),
		Subscription: NewSubscription(client),
		Profile:      NewProfile(client),
		Features: provider.Features{
			CanRefreshToken:        true,
			SupportsSubscriptions:  true,
			SupportsExternalData:   true,
			CanRenewSubscription:   true,
			CanUpdatePaymentMethod: true,
			CanShowReceipts:        true,
		},
	}
}

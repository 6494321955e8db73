// Package provider defines the abstract capability surface of the two
// supported commerce/identity backend families and the resolver that binds
// exactly one of them for the lifetime of the client.
package provider

import (
	"context"

	"github.com/vidgate/vidgate/internal/model"
)

// IdentityService covers authentication and account management.
type IdentityService interface {
	Login(ctx context.Context, email, password, deviceID string) (*model.AuthSession, *model.Account, error)
	Register(ctx context.Context, email, password, deviceID string) (*model.AuthSession, *model.Account, error)

	// GetFreshToken exchanges the current session for a new token pair.
	GetFreshToken(ctx context.Context, session *model.AuthSession) (*model.AuthSession, error)

	GetUser(ctx context.Context, accessToken string) (*model.Account, error)
	UpdateCustomer(ctx context.Context, accessToken, accountID string, update model.AccountUpdate) (*model.Account, error)

	ResetPassword(ctx context.Context, email string) error
	ChangePasswordWithOldPassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
	ChangePasswordWithToken(ctx context.Context, resetToken, newPassword string) error

	// NotificationsURL returns the websocket endpoint for the account's push
	// channel.
	NotificationsURL(accountID string) string

	// Logout tells the backend the session ended. Best-effort; local logout
	// does not depend on it succeeding.
	Logout(ctx context.Context, accessToken string) error
}

// SubscriptionService covers the recurring-billing lifecycle.
type SubscriptionService interface {
	// GetActiveSubscription returns nil when the account has none.
	GetActiveSubscription(ctx context.Context, accessToken, accountID string) (*model.Subscription, error)
	GetAllTransactions(ctx context.Context, accessToken, accountID string) ([]model.Transaction, error)
	// GetActivePayment returns nil when no payment method is on file.
	GetActivePayment(ctx context.Context, accessToken, accountID string) (*model.PaymentMethod, error)

	UpdateSubscription(ctx context.Context, accessToken, accountID, status string) error
	// SwitchSubscription starts a plan change and returns the pending switch id.
	SwitchSubscription(ctx context.Context, accessToken, accountID, toOfferID, direction string) (string, error)
	// UpdateCardDetails returns a hosted page URL for replacing the card.
	UpdateCardDetails(ctx context.Context, accessToken, accountID, returnURL string) (string, error)
	// FetchReceipt returns the rendered receipt for a transaction. Families
	// without receipt support return ErrUnconfigured-wrapped errors; gate on
	// Features.CanShowReceipts.
	FetchReceipt(ctx context.Context, accessToken, transactionID string) ([]byte, error)
}

// CommerceService covers one-off checkout and entitlement checks.
type CommerceService interface {
	GetOffer(ctx context.Context, offerID string) (*model.Offer, error)
	GetOffers(ctx context.Context, offerIDs []string) ([]model.Offer, error)

	CreateOrder(ctx context.Context, accessToken, accountID, offerID string) (*model.Order, error)
	UpdateOrder(ctx context.Context, accessToken string, order model.Order, paymentMethodID, couponCode string) (*model.Order, error)

	GetPaymentMethods(ctx context.Context, accessToken string) ([]model.PaymentMethod, error)
	CreatePaymentSession(ctx context.Context, accessToken, orderID string) (*model.PaymentSession, error)
	FinalizePayment(ctx context.Context, accessToken, orderID string) error

	// GetEntitlements reports whether the account may view the given offer.
	GetEntitlements(ctx context.Context, accessToken, offerID string) (bool, error)
}

// ProfileService covers the dedicated personal-shelf endpoints, for families
// that store shelves outside the account record.
type ProfileService interface {
	GetFavorites(ctx context.Context, accessToken, accountID string) ([]model.FavoriteRef, error)
	SetFavorites(ctx context.Context, accessToken, accountID string, favorites []model.FavoriteRef) error
	GetWatchHistory(ctx context.Context, accessToken, accountID string) ([]model.HistoryRef, error)
	SetWatchHistory(ctx context.Context, accessToken, accountID string, history []model.HistoryRef) error
}

// Features describes what the bound family supports. Callers gate optional
// flows on these flags instead of probing for errors.
type Features struct {
	// CanRefreshToken: the family issues refresh tokens for silent renewal.
	CanRefreshToken bool
	// SupportsSubscriptions: SVOD access model; reconciliation runs after
	// login and on push events.
	SupportsSubscriptions bool
	// SupportsExternalData: shelves are mirrored onto the account record.
	SupportsExternalData   bool
	CanRenewSubscription   bool
	CanUpdatePaymentMethod bool
	CanShowReceipts        bool
}

// Bundle is the full capability set of one backend family.
type Bundle struct {
	Name         string
	Identity     IdentityService
	Commerce     CommerceService
	Subscription SubscriptionService
	Profile      ProfileService
	Features     Features
}

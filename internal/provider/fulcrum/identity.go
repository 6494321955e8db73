package fulcrum

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vidgate/vidgate/internal/model"
)

// Identity implements provider.IdentityService. fulcrum sessions are
// expiring-only: the backend issues a single JWT and no refresh token.
type Identity struct {
	client *Client
}

func NewIdentity(client *Client) *Identity {
	return &Identity{client: client}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

type tokenResponse struct {
	Token   string        `json:"token"`
	Account model.Account `json:"account"`
}

func (i *Identity) Login(ctx context.Context, email, password, deviceID string) (*model.AuthSession, *model.Account, error) {
	var resp tokenResponse
	err := i.client.request(ctx, http.MethodPost, "/api/sessions", "", credentials{email, password, deviceID}, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	acct := resp.Account
	return &model.AuthSession{AccessToken: resp.Token}, &acct, nil
}

func (i *Identity) Register(ctx context.Context, email, password, deviceID string) (*model.AuthSession, *model.Account, error) {
	var resp tokenResponse
	err := i.client.request(ctx, http.MethodPost, "/api/accounts", "", credentials{email, password, deviceID}, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	acct := resp.Account
	return &model.AuthSession{AccessToken: resp.Token}, &acct, nil
}

func (i *Identity) GetFreshToken(ctx context.Context, session *model.AuthSession) (*model.AuthSession, error) {
	return nil, fmt.Errorf("fulcrum sessions are not refreshable: %w", model.ErrUnconfigured)
}

func (i *Identity) GetUser(ctx context.Context, accessToken string) (*model.Account, error) {
	var acct model.Account
	if err := i.client.request(ctx, http.MethodGet, "/api/accounts/me", accessToken, nil, &acct); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &acct, nil
}

func (i *Identity) UpdateCustomer(ctx context.Context, accessToken, accountID string, update model.AccountUpdate) (*model.Account, error) {
	var acct model.Account
	err := i.client.request(ctx, http.MethodPut, "/api/accounts/"+accountID, accessToken, update, &acct)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return &acct, nil
}

func (i *Identity) ResetPassword(ctx context.Context, email string) error {
	err := i.client.request(ctx, http.MethodPost, "/api/password-resets", "", map[string]string{"email": email}, nil)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (i *Identity) ChangePasswordWithOldPassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	err := i.client.request(ctx, http.MethodPut, "/api/accounts/me/password", accessToken, map[string]string{
		"current": oldPassword,
		"new":     newPassword,
	}, nil)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (i *Identity) ChangePasswordWithToken(ctx context.Context, resetToken, newPassword string) error {
	err := i.client.request(ctx, http.MethodPut, "/api/password-resets/"+resetToken, "", map[string]string{
		"new": newPassword,
	}, nil)
	if err != nil {
		return fmt.Errorf("change password with token: %w", err)
	}
	return nil
}

func (i *Identity) NotificationsURL(accountID string) string {
	return i.client.cfg.WSBaseURL + "/ws/accounts/" + accountID
}

func (i *Identity) Logout(ctx context.Context, accessToken string) error {
	if err := i.client.request(ctx, http.MethodDelete, "/api/sessions/current", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

package nimbus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vidgate/vidgate/internal/model"
)

// Identity implements provider.IdentityService against the nimbus REST API.
type Identity struct {
	client *Client
}

func NewIdentity(client *Client) *Identity {
	return &Identity{client: client}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

type authResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    int64         `json:"expires_at"`
	Account      model.Account `json:"account"`
}

func (r authResponse) session() *model.AuthSession {
	s := &model.AuthSession{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	if r.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	}
	return s
}

func (i *Identity) Login(ctx context.Context, email, password, deviceID string) (*model.AuthSession, *model.Account, error) {
	var resp authResponse
	err := i.client.do(ctx, http.MethodPost, "/v1/auth/login", "", authRequest{
		Email:    email,
		Password: password,
		DeviceID: deviceID,
	}, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	acct := resp.Account
	return resp.session(), &acct, nil
}

func (i *Identity) Register(ctx context.Context, email, password, deviceID string) (*model.AuthSession, *model.Account, error) {
	var resp authResponse
	err := i.client.do(ctx, http.MethodPost, "/v1/auth/register", "", authRequest{
		Email:    email,
		Password: password,
		DeviceID: deviceID,
	}, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	acct := resp.Account
	return resp.session(), &acct, nil
}

func (i *Identity) GetFreshToken(ctx context.Context, session *model.AuthSession) (*model.AuthSession, error) {
	var resp authResponse
	err := i.client.do(ctx, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return resp.session(), nil
}

func (i *Identity) GetUser(ctx context.Context, accessToken string) (*model.Account, error) {
	var acct model.Account
	if err := i.client.do(ctx, http.MethodGet, "/v1/accounts/me", accessToken, nil, &acct); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &acct, nil
}

func (i *Identity) UpdateCustomer(ctx context.Context, accessToken, accountID string, update model.AccountUpdate) (*model.Account, error) {
	var acct model.Account
	path := "/v1/accounts/" + accountID
	if err := i.client.do(ctx, http.MethodPatch, path, accessToken, update, &acct); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return &acct, nil
}

func (i *Identity) ResetPassword(ctx context.Context, email string) error {
	err := i.client.do(ctx, http.MethodPost, "/v1/auth/password/reset", "", map[string]string{"email": email}, nil)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (i *Identity) ChangePasswordWithOldPassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	err := i.client.do(ctx, http.MethodPut, "/v1/auth/password", accessToken, map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}, nil)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (i *Identity) ChangePasswordWithToken(ctx context.Context, resetToken, newPassword string) error {
	err := i.client.do(ctx, http.MethodPut, "/v1/auth/password/token", "", map[string]string{
		"reset_token":  resetToken,
		"new_password": newPassword,
	}, nil)
	if err != nil {
		return fmt.Errorf("change password with token: %w", err)
	}
	return nil
}

func (i *Identity) NotificationsURL(accountID string) string {
	return i.client.cfg.WSBaseURL + "/v1/notifications/" + accountID
}

func (i *Identity) Logout(ctx context.Context, accessToken string) error {
	if err := i.client.do(ctx, http.MethodDelete, "/v1/auth/session", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

package nimbus

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vidgate/vidgate/internal/model"
)

// Profile implements provider.ProfileService against the nimbus REST API.
// nimbus accounts also mirror shelves in external data; these endpoints are
// the fallback when the mirror is absent.
type Profile struct {
	client *Client
}

func NewProfile(client *Client) *Profile {
	return &Profile{client: client}
}

func (p *Profile) GetFavorites(ctx context.Context, accessToken, accountID string) ([]model.FavoriteRef, error) {
	var resp struct {
		Favorites []model.FavoriteRef `json:"favorites"`
	}
	path := "/v1/accounts/" + accountID + "/favorites"
	if err := p.client.do(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get favorites: %w", err)
	}
	return resp.Favorites, nil
}

func (p *Profile) SetFavorites(ctx context.Context, accessToken, accountID string, favorites []model.FavoriteRef) error {
	path := "/v1/accounts/" + accountID + "/favorites"
	body := map[string][]model.FavoriteRef{"favorites": favorites}
	if err := p.client.do(ctx, http.MethodPut, path, accessToken, body, nil); err != nil {
		return fmt.Errorf("set favorites: %w", err)
	}
	return nil
}

func (p *Profile) GetWatchHistory(ctx context.Context, accessToken, accountID string) ([]model.HistoryRef, error) {
	var resp struct {
		History []model.HistoryRef `json:"history"`
	}
	path := "/v1/accounts/" + accountID + "/history"
	if err := p.client.do(ctx, http.MethodGet, path, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get watch history: %w", err)
	}
	return resp.History, nil
}

func (p *Profile) SetWatchHistory(ctx context.Context, accessToken, accountID string, history []model.HistoryRef) error {
	path := "/v1/accounts/" + accountID + "/history"
	body := map[string][]model.HistoryRef{"history": history}
	if err := p.client.do(ctx, http.MethodPut, path, accessToken, body, nil); err != nil {
		return fmt.Errorf("set watch history: %w", err)
	}
	return nil
}

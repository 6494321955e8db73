// Package fulcrum implements the "fulcrum" backend family: REST identity
// with expiring-only sessions (no refresh tokens) and Stripe-hosted commerce
// for checkout and card management. Personal shelves stay local; fulcrum has
// no account-side mirror.
package fulcrum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vidgate/vidgate/internal/model"
)

type Config struct {
	BaseURL   string
	WSBaseURL string
	APIKey    string

	// Stripe settings for hosted checkout and the billing portal.
	StripeSecretKey string
	// PriceIDs maps an offer id to its Stripe price id.
	PriceIDs   map[string]string
	SuccessURL string
	CancelURL  string
}

// Client is the shared HTTP layer for fulcrum's own REST endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (c *Client) request(ctx context.Context, method, path, accessToken string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.APIKey, "")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, model.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb errorBody
		json.NewDecoder(resp.Body).Decode(&eb)
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%s %s: %w", method, path, model.ErrCredentialInvalid)
		case resp.StatusCode == http.StatusForbidden:
			// Authenticated but not allowed; the session itself is fine.
			return fmt.Errorf("%s %s: %w", method, path, model.ErrUnauthenticated)
		case resp.StatusCode == http.StatusUnprocessableEntity && len(eb.Fields) > 0:
			return &model.ValidationError{Fields: eb.Fields}
		case resp.StatusCode >= 500:
			return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, model.ErrTransient)
		default:
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, eb.Error)
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// Package nimbus implements the "nimbus" backend family: a JSON REST API
// covering identity, commerce, subscriptions and personal shelves, with JWT
// token pairs and a websocket push endpoint.
package nimbus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vidgate/vidgate/internal/model"
)

// errNotFound marks a 404 so capability methods can translate "no resource"
// into a nil result instead of an error.
var errNotFound = errors.New("not found")

type Config struct {
	BaseURL string
	// WSBaseURL is the websocket origin for the push channel. Defaults to
	// BaseURL with the scheme swapped to ws(s).
	WSBaseURL string
	APIKey    string
}

// Client is the shared HTTP layer for all nimbus capabilities.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.WSBaseURL == "" {
		ws := strings.Replace(cfg.BaseURL, "http://", "ws://", 1)
		ws = strings.Replace(ws, "https://", "wss://", 1)
		cfg.WSBaseURL = ws
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type apiError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// do issues a JSON request and decodes the response into out (skipped when
// out is nil). Failures are mapped onto the engine's error taxonomy.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, model.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapStatus(method, path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) mapStatus(method, path string, resp *http.Response) error {
	var ae apiError
	json.NewDecoder(resp.Body).Decode(&ae) // best-effort body

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// The token (or login credentials) themselves were rejected.
		return fmt.Errorf("%s %s: %w", method, path, model.ErrCredentialInvalid)
	case resp.StatusCode == http.StatusForbidden:
		// Authenticated but not allowed; the session itself is fine.
		return fmt.Errorf("%s %s: %w", method, path, model.ErrUnauthenticated)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, errNotFound)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		if len(ae.Fields) > 0 {
			return &model.ValidationError{Fields: ae.Fields}
		}
		return fmt.Errorf("%s %s: %s", method, path, ae.Message)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, model.ErrTransient)
	default:
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, ae.Message)
	}
}

// raw issues a request and returns the undecoded body (receipts).
func (c *Client) raw(ctx context.Context, method, path, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, model.ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, c.mapStatus(method, path, resp)
	}
	return io.ReadAll(resp.Body)
}

// Package config loads engine configuration from the environment, in the
// VIDGATE_* namespace. Exactly one integration family is chosen at startup
// and never changes for the process lifetime.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Integration identifiers.
const (
	IntegrationNimbus  = "nimbus"
	IntegrationFulcrum = "fulcrum"
)

type Config struct {
	Integration string
	APIBaseURL  string
	WSBaseURL   string
	APIKey      string

	// Stripe settings, required for the fulcrum family only.
	StripeSecretKey string
	StripePriceIDs  map[string]string
	SuccessURL      string
	CancelURL       string

	DBPath   string
	LogLevel string
}

// Load reads and validates configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Integration:     getenv("VIDGATE_INTEGRATION", IntegrationNimbus),
		APIBaseURL:      os.Getenv("VIDGATE_API_URL"),
		WSBaseURL:       os.Getenv("VIDGATE_WS_URL"),
		APIKey:          os.Getenv("VIDGATE_API_KEY"),
		StripeSecretKey: os.Getenv("VIDGATE_STRIPE_SECRET_KEY"),
		StripePriceIDs:  parsePriceIDs(os.Getenv("VIDGATE_STRIPE_PRICES")),
		SuccessURL:      os.Getenv("VIDGATE_CHECKOUT_SUCCESS_URL"),
		CancelURL:       os.Getenv("VIDGATE_CHECKOUT_CANCEL_URL"),
		DBPath:          getenv("VIDGATE_DB_PATH", "vidgate.db"),
		LogLevel:        getenv("VIDGATE_LOG_LEVEL", "info"),
	}

	if cfg.Integration != IntegrationNimbus && cfg.Integration != IntegrationFulcrum {
		return Config{}, fmt.Errorf("unknown integration %q", cfg.Integration)
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("VIDGATE_API_URL is required")
	}
	if cfg.Integration == IntegrationFulcrum && cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("VIDGATE_STRIPE_SECRET_KEY is required for the fulcrum integration")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parsePriceIDs parses "offerID=priceID,offerID=priceID".
func parsePriceIDs(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

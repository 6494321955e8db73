package config

import "testing"

func TestLoadRequiresAPIURL(t *testing.T) {
	t.Setenv("VIDGATE_API_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when VIDGATE_API_URL unset")
	}
}

func TestLoadRejectsUnknownIntegration(t *testing.T) {
	t.Setenv("VIDGATE_API_URL", "https://api.example.com")
	t.Setenv("VIDGATE_INTEGRATION", "acme")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown integration")
	}
}

func TestLoadFulcrumNeedsStripeKey(t *testing.T) {
	t.Setenv("VIDGATE_API_URL", "https://api.example.com")
	t.Setenv("VIDGATE_INTEGRATION", "fulcrum")
	t.Setenv("VIDGATE_STRIPE_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when stripe key missing for fulcrum")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIDGATE_API_URL", "https://api.example.com")
	t.Setenv("VIDGATE_INTEGRATION", "")
	t.Setenv("VIDGATE_DB_PATH", "")
	t.Setenv("VIDGATE_LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Integration != IntegrationNimbus {
		t.Errorf("integration = %q, want %q", cfg.Integration, IntegrationNimbus)
	}
	if cfg.DBPath != "vidgate.db" {
		t.Errorf("db path = %q, want vidgate.db", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestParsePriceIDs(t *testing.T) {
	got := parsePriceIDs("monthly=price_123, yearly=price_456,,bad")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(got), got)
	}
	if got["monthly"] != "price_123" {
		t.Errorf("monthly = %q, want price_123", got["monthly"])
	}
	if got["yearly"] != "price_456" {
		t.Errorf("yearly = %q, want price_456", got["yearly"])
	}
}

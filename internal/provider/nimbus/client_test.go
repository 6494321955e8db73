package nimbus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidgate/vidgate/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestDoSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotKey string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Api-Key")
		w.Write([]byte(`{}`))
	})

	if err := c.do(context.Background(), http.MethodGet, "/v1/accounts/me", "tok", nil, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q, want %q", gotAuth, "Bearer tok")
	}
	if gotKey != "test-key" {
		t.Errorf("api key = %q, want %q", gotKey, "test-key")
	}
}

func TestDoMapsUnauthorized(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.do(context.Background(), http.MethodGet, "/v1/accounts/me", "bad", nil, nil)
	if !errors.Is(err, model.ErrCredentialInvalid) {
		t.Errorf("err = %v, want ErrCredentialInvalid", err)
	}
}

func TestDoMapsForbiddenToUnauthenticated(t *testing.T) {
	// A 403 on a resource read means "not allowed", not "session broken":
	// it must never classify as a credential failure and force a logout.
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := c.do(context.Background(), http.MethodGet, "/v1/entitlements/o1", "tok", nil, nil)
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
	if errors.Is(err, model.ErrCredentialInvalid) {
		t.Error("403 must not classify as a credential failure")
	}
}

func TestDoMapsServerErrorToTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.do(context.Background(), http.MethodGet, "/v1/offers/o1", "", nil, nil)
	if !errors.Is(err, model.ErrTransient) {
		t.Errorf("err = %v, want ErrTransient", err)
	}
}

func TestDoMapsValidationFields(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad input","fields":{"email":"invalid"}}`))
	})

	err := c.do(context.Background(), http.MethodPost, "/v1/auth/register", "", nil, nil)
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Fields["email"] != "invalid" {
		t.Errorf("fields = %v, want email:invalid", ve.Fields)
	}
}

func TestGetActiveSubscriptionNotFoundIsNil(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	sub, err := NewSubscription(c).GetActiveSubscription(context.Background(), "tok", "acct-1")
	if err != nil {
		t.Fatalf("get active subscription: %v", err)
	}
	if sub != nil {
		t.Errorf("subscription = %+v, want nil", sub)
	}
}

func TestNotificationsURLDerivedFromBase(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://api.example.com", APIKey: "k"})
	got := NewIdentity(c).NotificationsURL("acct-7")
	want := "wss://api.example.com/v1/notifications/acct-7"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}

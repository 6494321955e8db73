package fulcrum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidgate/vidgate/internal/model"
)

func TestRequestSendsAPIKeyAndBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "key-123" {
			t.Errorf("basic auth user = %q, want key-123", user)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q, want Bearer tok-1", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "key-123"})
	if err := c.request(context.Background(), http.MethodGet, "/api/accounts/me", "tok-1", nil, nil); err != nil {
		t.Fatalf("request: %v", err)
	}
}

func TestLoginReturnsExpiringOnlySession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"token":"jwt-abc","account":{"id":"acct-1","email":"a@b.com"}}`))
	}))
	defer srv.Close()

	id := NewIdentity(NewClient(Config{BaseURL: srv.URL, APIKey: "k"}))
	sess, acct, err := id.Login(context.Background(), "a@b.com", "pw", "dev-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccessToken != "jwt-abc" {
		t.Errorf("token = %q, want jwt-abc", sess.AccessToken)
	}
	if sess.RefreshToken != "" {
		t.Errorf("refresh token = %q, want empty", sess.RefreshToken)
	}
	if acct.ID != "acct-1" {
		t.Errorf("account id = %q, want acct-1", acct.ID)
	}
}

func TestGetFreshTokenIsUnsupported(t *testing.T) {
	id := NewIdentity(NewClient(Config{BaseURL: "http://unused"}))

	if _, err := id.GetFreshToken(context.Background(), &model.AuthSession{}); !errors.Is(err, model.ErrUnconfigured) {
		t.Errorf("err = %v, want ErrUnconfigured", err)
	}
}

func TestFetchReceiptIsUnsupported(t *testing.T) {
	sub := NewSubscription(NewClient(Config{BaseURL: "http://unused"}))

	if _, err := sub.FetchReceipt(context.Background(), "tok", "tx-1"); !errors.Is(err, model.ErrUnconfigured) {
		t.Errorf("err = %v, want ErrUnconfigured", err)
	}
}

func TestRequestMapsStatusCodes(t *testing.T) {
	status := http.StatusUnauthorized
	body := `{}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL})

	err := c.request(context.Background(), http.MethodGet, "/api/x", "", nil, nil)
	if !errors.Is(err, model.ErrCredentialInvalid) {
		t.Errorf("401 err = %v, want ErrCredentialInvalid", err)
	}

	status, body = http.StatusForbidden, `{}`
	err = c.request(context.Background(), http.MethodGet, "/api/x", "", nil, nil)
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("403 err = %v, want ErrUnauthenticated", err)
	}

	status, body = http.StatusBadGateway, `{}`
	err = c.request(context.Background(), http.MethodGet, "/api/x", "", nil, nil)
	if !errors.Is(err, model.ErrTransient) {
		t.Errorf("502 err = %v, want ErrTransient", err)
	}

	status, body = http.StatusUnprocessableEntity, `{"error":"invalid","fields":{"email":"taken"}}`
	err = c.request(context.Background(), http.MethodGet, "/api/x", "", nil, nil)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("422 err = %v, want ValidationError", err)
	}
	if verr.Fields["email"] != "taken" {
		t.Errorf("fields = %v, want email taken", verr.Fields)
	}
}

func TestNotificationsURL(t *testing.T) {
	id := NewIdentity(NewClient(Config{WSBaseURL: "wss://push.example.com"}))

	got := id.NotificationsURL("acct-1")
	want := "wss://push.example.com/ws/accounts/acct-1"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}

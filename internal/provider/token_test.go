package provider

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "acct-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	got, ok := TokenExpiry(signed)
	if !ok {
		t.Fatal("expected expiry to be found")
	}
	if !got.Equal(exp) {
		t.Errorf("expiry = %v, want %v", got, exp)
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Error("expected no expiry for opaque token")
	}
}

func TestTokenExpiryNoExpClaim(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "acct-1"})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, ok := TokenExpiry(signed); ok {
		t.Error("expected no expiry when exp claim absent")
	}
}

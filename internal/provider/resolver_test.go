package provider

import (
	"strings"
	"testing"
)

func TestResolverPanicsBeforeConfigure(t *testing.T) {
	r := NewResolver()

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic for unconfigured resolver")
		}
		msg, ok := rec.(string)
		if !ok || !strings.Contains(msg, "before integration configured") {
			t.Errorf("panic message = %v, want descriptive message", rec)
		}
	}()
	r.Identity()
}

func TestResolverReady(t *testing.T) {
	r := NewResolver()
	if r.Ready() {
		t.Error("expected not ready before Configure")
	}

	r.Configure(Bundle{Name: "nimbus", Features: Features{CanRefreshToken: true}})

	if !r.Ready() {
		t.Error("expected ready after Configure")
	}
	if got := r.Name(); got != "nimbus" {
		t.Errorf("name = %q, want %q", got, "nimbus")
	}
	if !r.Features().CanRefreshToken {
		t.Error("expected CanRefreshToken feature")
	}
}

package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewAuthDisabledWithoutKey(t *testing.T) {
	if NewAuth("  ", time.Hour, nil) != nil {
		t.Fatal("expected nil auth for blank key")
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewAuth("k", time.Minute, func() time.Time { return now })
	token, err := issuer.Issue("anon")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	later := NewAuth("k", time.Minute, func() time.Time { return now.Add(2 * time.Minute) })
	if _, err := later.Verify(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestAuthRejectsForeignKey(t *testing.T) {
	token, err := NewAuth("one", time.Hour, nil).Issue("anon")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewAuth("two", time.Hour, nil).Verify(token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/logs?token=q", nil)
	if got := tokenFromRequest(req); got != "q" {
		t.Fatalf("expected query token, got %q", got)
	}
	req.Header.Set("Authorization", "Bearer h")
	if got := tokenFromRequest(req); got != "h" {
		t.Fatalf("expected header token, got %q", got)
	}
	req.Header.Set("Authorization", "Basic x")
	if got := tokenFromRequest(req); got != "" {
		t.Fatalf("expected no token for basic auth, got %q", got)
	}
}

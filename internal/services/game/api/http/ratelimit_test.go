package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func TestIPLimiterEvictsIdleClients(t *testing.T) {
	limiter := newIPLimiter(1, 1)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	limiter.lastSweep = clock

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		limiter.get(ip)
	}
	if limiter.size() != 3 {
		t.Fatalf("size = %d, want 3", limiter.size())
	}

	clock = clock.Add(limiterIdleTTL / 2)
	limiter.get("10.0.0.3")

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	limiter.get("10.0.0.4")
	if got := limiter.size(); got != 2 {
		t.Fatalf("size after sweep = %d, want 2 (active and new client)", got)
	}
	if _, ok := limiter.limiters["10.0.0.1"]; ok {
		t.Fatal("idle client survived the sweep")
	}
	if _, ok := limiter.limiters["10.0.0.3"]; !ok {
		t.Fatal("recently seen client was evicted")
	}
}

func TestIPLimiterKeepsBudgetPerClient(t *testing.T) {
	limiter := newIPLimiter(0.001, 1)
	first := httptest.NewRequest("POST", "/api/actions/attack", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	other := httptest.NewRequest("POST", "/api/actions/attack", nil)
	other.RemoteAddr = "10.0.0.2:5000"

	if !limiter.allow(first) {
		t.Fatal("first request should pass")
	}
	if limiter.allow(first) {
		t.Fatal("second request from the same client should be limited")
	}
	if !limiter.allow(other) {
		t.Fatal("another client has its own budget")
	}
	var disabled *ipLimiter
	if !disabled.allow(first) {
		t.Fatal("nil limiter allows everything")
	}
}

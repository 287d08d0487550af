package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// twoPerMinute allows 3 requests up front, then one every 30s
func twoPerMinute(t *testing.T) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	rl := newRateLimiter(RateLimitConfig{
		Window:    time.Minute,
		Public:    RateLimitPolicy{Requests: 2, Burst: 1},
		Authed:    RateLimitPolicy{Requests: 5, Burst: 0},
		Community: RateLimitPolicy{Requests: 10, Burst: 0},
	}, clock.Now)
	t.Cleanup(rl.Stop)
	return rl, clock
}

// ============================================================================
// NewRateLimiter Tests
// ============================================================================

func TestNewRateLimiter_Defaults(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})
	defer rl.Stop()

	if rl.window != time.Minute {
		t.Errorf("expected default window 1m, got %v", rl.window)
	}
	if rl.idle != 3*time.Minute {
		t.Errorf("expected idle ttl of three windows, got %v", rl.idle)
	}
	for _, g := range []RouteGroup{GroupPublic, GroupAuthed, GroupCommunity} {
		if p := rl.policy(g); p.Requests != 100 || p.Burst != 20 {
			t.Errorf("group %s: expected 100/20, got %d/%d", g, p.Requests, p.Burst)
		}
	}
}

func TestNewRateLimiter_UnsetGroupsFallBackToPublic(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{
		Public: RateLimitPolicy{Requests: 7, Burst: 2},
		Authed: RateLimitPolicy{Requests: 40},
	})
	defer rl.Stop()

	if p := rl.policy(GroupAuthed); p.Requests != 40 {
		t.Errorf("expected authed policy kept, got %d", p.Requests)
	}
	if p := rl.policy(GroupCommunity); p.Requests != 7 || p.Burst != 2 {
		t.Errorf("expected community to inherit public policy, got %d/%d", p.Requests, p.Burst)
	}
}

func TestRateLimiter_Stop_Idempotent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})
	rl.Stop()
	rl.Stop()
}

// ============================================================================
// Allow Tests
// ============================================================================

func TestAllow_CapacityIsRequestsPlusBurst(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)

	for i := 0; i < 3; i++ {
		if d := rl.Allow(GroupPublic, "ip:203.0.113.1"); !d.Allowed {
			t.Fatalf("request %d: expected allowed", i)
		}
	}
	d := rl.Allow(GroupPublic, "ip:203.0.113.1")
	if d.Allowed {
		t.Fatal("expected fourth request to be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("expected 0 remaining, got %d", d.Remaining)
	}
	if d.RetryAfter < 29*time.Second || d.RetryAfter > 30*time.Second {
		t.Errorf("expected retry after about 30s, got %v", d.RetryAfter)
	}
}

func TestAllow_RefillsOverWindow(t *testing.T) {
	t.Parallel()
	rl, clock := twoPerMinute(t)

	for i := 0; i < 3; i++ {
		rl.Allow(GroupPublic, "k")
	}
	clock.Advance(31 * time.Second)
	if d := rl.Allow(GroupPublic, "k"); !d.Allowed {
		t.Error("expected a token after half a window")
	}
	if d := rl.Allow(GroupPublic, "k"); d.Allowed {
		t.Error("expected a single token after half a window")
	}
}

func TestAllow_DeniedRequestsDoNotSpendTokens(t *testing.T) {
	t.Parallel()
	rl, clock := twoPerMinute(t)

	for i := 0; i < 3; i++ {
		rl.Allow(GroupPublic, "k")
	}
	for i := 0; i < 5; i++ {
		if d := rl.Allow(GroupPublic, "k"); d.Allowed {
			t.Fatalf("retry %d: expected denied", i)
		}
	}
	clock.Advance(31 * time.Second)
	if d := rl.Allow(GroupPublic, "k"); !d.Allowed {
		t.Error("expected retries while limited not to push the caller further back")
	}
}

func TestAllow_GroupsHaveSeparateBuckets(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)

	for i := 0; i < 4; i++ {
		rl.Allow(GroupPublic, "user:renter-1")
	}
	d := rl.Allow(GroupAuthed, "user:renter-1")
	if !d.Allowed {
		t.Error("expected authed bucket untouched by public traffic")
	}
	if d.Limit != 5 {
		t.Errorf("expected authed limit 5, got %d", d.Limit)
	}
	if d.Remaining != 4 {
		t.Errorf("expected 4 remaining, got %d", d.Remaining)
	}
}

func TestAllow_ResetIsWhenBucketRefillsFully(t *testing.T) {
	t.Parallel()
	rl, clock := twoPerMinute(t)

	d := rl.Allow(GroupPublic, "k")
	if got := d.Reset.Sub(clock.Now()); got < 29*time.Second || got > 31*time.Second {
		t.Errorf("expected reset about 30s out, got %v", got)
	}
}

func TestAllow_ConcurrentCallersShareBucket(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(GroupCommunity, "ip:198.51.100.2").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Errorf("expected exactly 10 allowed, got %d", allowed)
	}
}

func TestSweep_RemovesIdleCallers(t *testing.T) {
	t.Parallel()
	rl, clock := twoPerMinute(t)

	rl.Allow(GroupPublic, "old")
	clock.Advance(2 * time.Minute)
	rl.Allow(GroupPublic, "fresh")
	clock.Advance(90 * time.Second)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.callers[string(GroupPublic)+"|old"]; ok {
		t.Error("expected idle caller to be swept")
	}
	if _, ok := rl.callers[string(GroupPublic)+"|fresh"]; !ok {
		t.Error("expected recent caller to be kept")
	}
}

// ============================================================================
// Middleware Tests
// ============================================================================

func TestRateLimitFor_AllowedRequest_SetsHeaders(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodGet, "/custom/listings", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	rl.For(GroupPublic)(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !handler.called {
		t.Fatalf("expected request through, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("expected X-RateLimit-Limit '2', got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Errorf("expected X-RateLimit-Remaining '2', got %q", got)
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("expected X-RateLimit-Reset header")
	}
}

func TestRateLimitFor_Denied_Returns429Problem(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)
	mw := rl.For(GroupPublic)

	var rr *httptest.ResponseRecorder
	handler := &captureHandler{}
	for i := 0; i < 4; i++ {
		handler.called = false
		req := httptest.NewRequest(http.MethodGet, "/custom/listings", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr = httptest.NewRecorder()
		mw(handler).ServeHTTP(rr, req)
	}

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if handler.called {
		t.Error("handler should not run when limited")
	}
	if got := rr.Header().Get("Retry-After"); got != "30" {
		t.Errorf("expected Retry-After '30', got %q", got)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/problem+json") {
		t.Errorf("expected problem content type, got %q", rr.Header().Get("Content-Type"))
	}
	if detail := problemDetail(t, rr); !strings.Contains(detail, "30 seconds") {
		t.Errorf("expected retry hint in detail, got %q", detail)
	}
}

func TestRateLimitFor_KeysByUserWhenAuthenticated(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)
	mw := rl.For(GroupAuthed)

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/generic/favorites", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		mw(&captureHandler{}).ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 5; i++ {
		send("renter-1")
	}
	if code := send("renter-1"); code != http.StatusTooManyRequests {
		t.Errorf("expected renter-1 limited, got %d", code)
	}
	if code := send("renter-2"); code != http.StatusOK {
		t.Errorf("expected renter-2 on the same address to pass, got %d", code)
	}
}

func TestRateLimitFor_RotatedForwardedFor_FromUntrustedPeerSharesBucket(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)

	chain := Chain(&captureHandler{}, ClientIP(testProxies), rl.For(GroupPublic))
	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/custom/listings", nil)
		req.RemoteAddr = "203.0.113.50:443"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected spoofed forwarding headers not to mint new buckets, got %d", last)
	}
}

func TestRateLimitFor_ClientsBehindTrustedProxyGetOwnBuckets(t *testing.T) {
	t.Parallel()
	rl, _ := twoPerMinute(t)

	chain := Chain(&captureHandler{}, ClientIP(testProxies), rl.For(GroupPublic))
	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/custom/listings", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", forwarded)
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 3; i++ {
		if code := send("198.51.100.1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected first client limited, got %d", code)
	}
	if code := send("1.1.1.1, 198.51.100.2"); code != http.StatusOK {
		t.Errorf("expected second client behind the proxy to pass, got %d", code)
	}
	if code := send("198.51.100.2, 198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected a prepended hop not to escape the limit, got %d", code)
	}
}

func TestRateLimitKey_PrefersUserID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "renter-1"))

	if got := rateLimitKey(req); got != "user:renter-1" {
		t.Errorf("expected 'user:renter-1', got %q", got)
	}
}

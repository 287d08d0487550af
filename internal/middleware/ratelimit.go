package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rentwise/api/internal/model"
)

// RouteGroup names a set of routes sharing one rate limit policy
type RouteGroup string

const (
	GroupPublic    RouteGroup = "public"
	GroupAuthed    RouteGroup = "authed"
	GroupCommunity RouteGroup = "community"
)

// RateLimitPolicy allows Requests per window, with Burst extra requests
// available to an idle caller.
type RateLimitPolicy struct {
	Requests int
	Burst    int
}

// RateLimitConfig holds the window and the policy for each route group.
// IdleTTL is how long an unused caller entry is kept (default 3 windows).
type RateLimitConfig struct {
	Window    time.Duration
	Public    RateLimitPolicy
	Authed    RateLimitPolicy
	Community RateLimitPolicy
	IdleTTL   time.Duration
}

// RateLimiter keeps one token bucket per route group and caller
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	idle     time.Duration
	policies map[RouteGroup]RateLimitPolicy
	callers  map[string]*caller
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type caller struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// NewRateLimiter creates a limiter and starts its idle-entry sweeper.
// Groups with no requests configured fall back to the public policy.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return newRateLimiter(cfg, time.Now)
}

func newRateLimiter(cfg RateLimitConfig, now func() time.Time) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Public.Requests <= 0 {
		cfg.Public = RateLimitPolicy{Requests: 100, Burst: 20}
	}
	if cfg.Authed.Requests <= 0 {
		cfg.Authed = cfg.Public
	}
	if cfg.Community.Requests <= 0 {
		cfg.Community = cfg.Public
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * cfg.Window
	}

	rl := &RateLimiter{
		window: cfg.Window,
		idle:   cfg.IdleTTL,
		policies: map[RouteGroup]RateLimitPolicy{
			GroupPublic:    cfg.Public,
			GroupAuthed:    cfg.Authed,
			GroupCommunity: cfg.Community,
		},
		callers: make(map[string]*caller),
		now:     now,
		stop:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for key, c := range rl.callers {
		if c.seen.Before(cutoff) {
			delete(rl.callers, key)
		}
	}
}

func (rl *RateLimiter) policy(group RouteGroup) RateLimitPolicy {
	if p, ok := rl.policies[group]; ok {
		return p
	}
	return rl.policies[GroupPublic]
}

// Allow spends one token from the group's bucket for key
func (rl *RateLimiter) Allow(group RouteGroup, key string) Decision {
	p := rl.policy(group)
	every := rate.Limit(float64(p.Requests) / rl.window.Seconds())
	capacity := p.Requests + p.Burst

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	id := string(group) + "|" + key
	c, ok := rl.callers[id]
	if !ok {
		c = &caller{limiter: rate.NewLimiter(every, capacity)}
		rl.callers[id] = c
	}
	c.seen = now

	d := Decision{Limit: p.Requests}
	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		d.RetryAfter = delay
	} else {
		d.Allowed = true
	}

	tokens := c.limiter.TokensAt(now)
	d.Remaining = max(int(math.Floor(tokens)), 0)
	missing := float64(capacity) - tokens
	d.Reset = now.Add(time.Duration(missing / float64(every) * float64(time.Second)))
	return d
}

// rateLimitKey buckets authenticated callers by id and everyone else by address
func rateLimitKey(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "user:" + id
	}
	if ip := GetClientIP(r.Context()); ip != "" {
		return "ip:" + ip
	}
	return "ip:" + r.RemoteAddr
}

// For returns the middleware enforcing the group's policy. It must run after
// ClientIP, and after Auth on routes keyed by user.
func (rl *RateLimiter) For(group RouteGroup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := rl.Allow(group, rateLimitKey(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

			if !d.Allowed {
				retryAfter := max(int(math.Ceil(d.RetryAfter.Seconds())), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

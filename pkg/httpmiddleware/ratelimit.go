package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultClass names the budget of requests no RateClass claims.
const DefaultClass = "default"

// Limit is a per-client request budget over a sliding window.
type Limit struct {
	Max    int
	Window time.Duration
}

// RateClass gives the requests matched by Match their own budget, counted
// apart from every other class.
type RateClass struct {
	Name  string
	Limit Limit
	Match func(*http.Request) bool
}

// RateLimitConfig configures RateLimit. Classes are tried in order and the
// first match wins; unmatched requests use Default.
type RateLimitConfig struct {
	Default Limit
	Classes []RateClass
	// Exempt requests are never counted, e.g. health checks.
	Exempt func(*http.Request) bool
	// ClientKey identifies the client. Defaults to ClientIP.
	ClientKey func(*http.Request) string
}

// window counts hits in the current and previous fixed windows. The
// previous count is weighted by how much of it still overlaps the sliding
// window ending now.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

func (w *window) take(now time.Time, l Limit) (remaining int, resetAt time.Time, ok bool) {
	if now.Sub(w.start) >= l.Window {
		if now.Sub(w.start) >= 2*l.Window {
			w.prev = 0
		} else {
			w.prev = w.curr
		}
		w.curr = 0
		w.start = now.Truncate(l.Window)
	}
	overlap := max(1-now.Sub(w.start).Seconds()/l.Window.Seconds(), 0)
	used := w.prev*overlap + w.curr
	resetAt = w.start.Add(l.Window)
	if used >= float64(l.Max) {
		return 0, resetAt, false
	}
	w.curr++
	return max(int(float64(l.Max)-used-1), 0), resetAt, true
}

type bucketKey struct {
	class  string
	client string
}

type rateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	windows map[bucketKey]*window
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.ClientKey == nil {
		cfg.ClientKey = ClientIP
	}
	return &rateLimiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[bucketKey]*window),
	}
}

func (rl *rateLimiter) classify(r *http.Request) (string, Limit) {
	for _, c := range rl.cfg.Classes {
		if c.Match(r) {
			return c.Name, c.Limit
		}
	}
	return DefaultClass, rl.cfg.Default
}

func (rl *rateLimiter) take(key bucketKey, l Limit, now time.Time) (int, time.Time, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		w = &window{start: now}
		rl.windows[key] = w
	}
	return w.take(now, l)
}

// longestWindow bounds how long an idle bucket can still matter.
func (rl *rateLimiter) longestWindow() time.Duration {
	d := rl.cfg.Default.Window
	for _, c := range rl.cfg.Classes {
		d = max(d, c.Limit.Window)
	}
	return d
}

func (rl *rateLimiter) evict(now time.Time) {
	horizon := 2 * rl.longestWindow()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= horizon {
			delete(rl.windows, key)
		}
	}
}

func (rl *rateLimiter) evictEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

// RateLimit enforces the configured budgets per client and class. Counted
// responses carry X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset and X-RateLimit-Class; a spent budget gets 429 with
// Retry-After. Idle buckets are evicted until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	if d := rl.longestWindow(); d > 0 {
		go rl.evictEvery(ctx, 2*d)
	}
	return rl.middleware
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Exempt != nil && rl.cfg.Exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		class, limit := rl.classify(r)
		now := rl.now()
		remaining, resetAt, ok := rl.take(bucketKey{class: class, client: rl.cfg.ClientKey(r)}, limit, now)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		h.Set("X-RateLimit-Class", class)
		if !ok {
			wait := max(resetAt.Sub(now), 0)
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded for "+class+" requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the first X-Forwarded-For address, else X-Real-IP, else
// the host of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func isRating(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == "/api/products/1/ratings"
}

func shopLimits() RateLimitConfig {
	return RateLimitConfig{
		Default: Limit{Max: 5, Window: time.Minute},
		Classes: []RateClass{{
			Name:  "writes",
			Limit: Limit{Max: 2, Window: time.Minute},
			Match: isRating,
		}},
		Exempt: func(r *http.Request) bool { return r.URL.Path == "/livez" },
	}
}

// newTestLimiter returns a limited okHandler and a pointer to its clock.
func newTestLimiter(cfg RateLimitConfig) (http.Handler, *time.Time) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl := newRateLimiter(cfg)
	rl.now = func() time.Time { return now }
	return rl.middleware(okHandler()), &now
}

func send(h http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_DefaultBudget(t *testing.T) {
	h, _ := newTestLimiter(shopLimits())

	for i := range 5 {
		w := send(h, http.MethodGet, "/api/products", "10.0.0.1:1")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, DefaultClass, w.Header().Get("X-RateLimit-Class"))
	}

	w := send(h, http.MethodGet, "/api/products", "10.0.0.1:2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded for default requests", body["message"])

	w = send(h, http.MethodGet, "/api/products", "10.0.0.2:1")
	assert.Equal(t, http.StatusOK, w.Code, "clients are counted apart")
}

func TestRateLimit_WriteClassIsTighterAndSeparate(t *testing.T) {
	h, _ := newTestLimiter(shopLimits())

	for range 2 {
		w := send(h, http.MethodPost, "/api/products/1/ratings", "10.0.0.1:1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "writes", w.Header().Get("X-RateLimit-Class"))
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := send(h, http.MethodPost, "/api/products/1/ratings", "10.0.0.1:1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "writes requests")

	w = send(h, http.MethodGet, "/api/products/1", "10.0.0.1:1")
	assert.Equal(t, http.StatusOK, w.Code, "reads keep their own budget")
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_SlidingWindow(t *testing.T) {
	h, now := newTestLimiter(RateLimitConfig{Default: Limit{Max: 2, Window: time.Minute}})

	for range 2 {
		require.Equal(t, http.StatusOK, send(h, http.MethodGet, "/", "10.0.0.1:1").Code)
	}
	require.Equal(t, http.StatusTooManyRequests, send(h, http.MethodGet, "/", "10.0.0.1:1").Code)

	// Half way into the next window the previous two count as one.
	*now = now.Add(90 * time.Second)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodGet, "/", "10.0.0.1:1").Code)

	*now = now.Add(3 * time.Minute)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/", "10.0.0.1:1").Code)
}

func TestRateLimit_Exempt(t *testing.T) {
	h, _ := newTestLimiter(shopLimits())

	for range 10 {
		w := send(h, http.MethodGet, "/livez", "10.0.0.1:1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_CustomClientKey(t *testing.T) {
	cfg := RateLimitConfig{
		Default:   Limit{Max: 1, Window: time.Minute},
		ClientKey: func(r *http.Request) string { return r.Header.Get("X-Cart-Id") },
	}
	h, _ := newTestLimiter(cfg)

	get := func(cart string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Cart-Id", cart)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, get("a"))
	assert.Equal(t, http.StatusTooManyRequests, get("a"))
	assert.Equal(t, http.StatusOK, get("b"))
}

func TestRateLimit_EvictsIdleBuckets(t *testing.T) {
	rl := newRateLimiter(shopLimits())
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.take(bucketKey{class: DefaultClass, client: "a"}, rl.cfg.Default, start)
	rl.take(bucketKey{class: DefaultClass, client: "b"}, rl.cfg.Default, start.Add(90*time.Second))

	rl.evict(start.Add(2 * time.Minute))

	assert.Len(t, rl.windows, 1)
	assert.Contains(t, rl.windows, bucketKey{class: DefaultClass, client: "b"})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded list", header: map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, remote: "192.168.1.1:4444", want: "203.0.113.50"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "192.168.1.1:4444", want: "198.51.100.7"},
		{name: "remote addr", remote: "192.168.1.1:4444", want: "192.168.1.1"},
		{name: "remote without port", remote: "192.168.1.1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

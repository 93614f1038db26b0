package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// corsMethods are the methods the API routes use.
const corsMethods = "GET, POST, PUT, PATCH, DELETE"

// CORSConfig lists what browser clients on other origins may do.
type CORSConfig struct {
	// AllowOrigins is matched case-insensitively. Empty or "*" allows any
	// origin unless AllowCredentials is set.
	AllowOrigins []string
	// AllowHeaders are the request headers a client may send, such as the
	// owner credentials and the cart id.
	AllowHeaders []string
	// ExposeHeaders are the response headers scripts may read.
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is how long a preflight answer may be cached.
	MaxAge time.Duration
}

type corsPolicy struct {
	any         bool
	origins     map[string]string
	credentials bool
	headers     string
	expose      string
	maxAge      string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		any:         len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		credentials: cfg.AllowCredentials,
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.any = true
			continue
		}
		p.origins[strings.ToLower(o)] = o
	}
	// A credentialed response must name its origin.
	if p.credentials {
		p.any = false
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(cfg.MaxAge / time.Second))
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "".
func (p corsPolicy) allow(origin string) string {
	if p.any {
		return "*"
	}
	return p.origins[strings.ToLower(origin)]
}

// CORS answers preflight requests and marks allowed cross-origin responses.
// Requests from origins that are not allowed are served without CORS
// headers, so the browser withholds the response.
func CORS(cfg CORSConfig) Middleware {
	p := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !p.any {
				h.Add("Vary", "Origin")
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := p.allow(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					h.Set("Access-Control-Allow-Methods", corsMethods)
					if p.headers != "" {
						h.Set("Access-Control-Allow-Headers", p.headers)
					}
					if p.credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if p.maxAge != "" {
						h.Set("Access-Control-Max-Age", p.maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if p.expose != "" {
					h.Set("Access-Control-Expose-Headers", p.expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

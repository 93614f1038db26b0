package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	headerCartID     = "X-Cart-Id"
	cartCookie       = "kastkar_cart"
	cartCookieMaxAge = 30 * 24 * 60 * 60
)

type cartIDKey struct{}

// cartSession resolves the client's cart id from the X-Cart-Id header or
// the cart cookie. A missing or malformed id is replaced by a fresh one,
// which is handed back in the cookie. The id is echoed in X-Cart-Id.
func cartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestCartID(r)
		if !ok {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   cartCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(headerCartID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), cartIDKey{}, id)))
	})
}

func requestCartID(r *http.Request) (string, bool) {
	raw := r.Header.Get(headerCartID)
	if raw == "" {
		if c, err := r.Cookie(cartCookie); err == nil {
			raw = c.Value
		}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// cartID returns the id set by cartSession.
func cartID(r *http.Request) string {
	id, _ := r.Context().Value(cartIDKey{}).(string)
	return id
}

package handler

import (
	"net/http"

	"github.com/kastkar/krushi/internal/domain/auth"
	"github.com/kastkar/krushi/pkg/httpmiddleware"
)

const (
	headerOwnerID  = "X-Owner-Id"
	headerOwnerKey = "X-Owner-Key"
)

// identify marks requests that carry valid owner credentials. Requests
// without credentials pass through as guests; wrong credentials get 401.
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerOwnerID)
		key := r.Header.Get(headerOwnerKey)
		if id == "" && key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if err := h.verifier.Verify(id, key); err != nil {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "invalid owner credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context())))
	})
}

func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsOwner(r.Context()) {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "owner login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

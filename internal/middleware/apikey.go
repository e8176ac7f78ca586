package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKey guards operator endpoints with the X-API-Key header. An empty
// configured key disables the endpoint.
func (m *Middleware) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := m.cfg.Audit.APIKey
		if expected == "" {
			writeError(w, http.StatusForbidden, `{"error":{"code":"forbidden","message":"This endpoint is disabled"}}`)
			return
		}

		if !validAPIKey(r, expected) {
			writeError(w, http.StatusUnauthorized, `{"error":{"code":"unauthorized","message":"A valid API key is required"}}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func validAPIKey(r *http.Request, expected string) bool {
	got := r.Header.Get("X-API-Key")
	return expected != "" && subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

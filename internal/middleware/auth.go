package middleware

import (
	"net/http"
)

// AppCredentials authenticates send requests that carry no delegated token.
// Such requests are served with the application's Graph credentials, so they
// must present the mail API key. Must run after BearerToken.
func (m *Middleware) AppCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAccessToken(r.Context()) != "" {
			next.ServeHTTP(w, r)
			return
		}

		if !validAPIKey(r, m.cfg.Mail.APIKey) {
			m.log.Debug().Str("ip", ClientIP(r)).Msg("rejected send without credentials")
			writeError(w, http.StatusUnauthorized, `{"error":{"code":"unauthorized","message":"A Graph access token or API key is required"}}`)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package router

import (
	"net/http"

	"github.com/graphconnect/graphconnect/internal/handler"
	"github.com/graphconnect/graphconnect/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, sendLimit middleware.RateLimitConfig) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	mux.HandleFunc("GET /api/v1/", h.Index)

	// Mail routes. A bearer token, when present, is a delegated Graph token;
	// without one the caller needs the mail API key.
	sendRateLimit := mw.RateLimit(sendLimit)
	mux.Handle("POST /api/v1/mail/send", sendRateLimit(mw.BearerToken(mw.AppCredentials(http.HandlerFunc(h.SendMail)))))
	mux.Handle("GET /api/v1/mail/sent", mw.APIKey(http.HandlerFunc(h.ListSentMail)))

	// Apply middleware stack
	var handler http.Handler = mux

	// Request logging
	handler = mw.Logger(handler)

	// Timing
	handler = mw.Timing(handler)

	// Client address
	handler = mw.RealIP(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}

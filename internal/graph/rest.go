package graph

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/graphconnect/graphconnect/internal/logger"
)

// DefaultTimeout is used when NewHTTPClient is given a zero timeout.
const DefaultTimeout = 30 * time.Second

// Interceptor decorates an outgoing round tripper, e.g. to attach credentials.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// roundTripperFunc adapts a function to http.RoundTripper
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// NewHTTPClient builds the client used by RESTService. Interceptors are applied
// in order, so the first one sees the request first.
func NewHTTPClient(timeout time.Duration, interceptors ...Interceptor) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var transport http.RoundTripper = http.DefaultTransport
	for i := len(interceptors) - 1; i >= 0; i-- {
		if interceptors[i] != nil {
			transport = interceptors[i](transport)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// TokenInterceptor attaches a Bearer token from ts to every request.
func TokenInterceptor(ts oauth2.TokenSource) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return &oauth2.Transport{
			Source: ts,
			Base:   next,
		}
	}
}

// LoggingInterceptor logs each Graph call at debug level.
func LoggingInterceptor(log *logger.Logger) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			event := log.Debug().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Dur("duration", time.Since(start))
			if err != nil {
				event.Err(err).Msg("graph request failed")
				return resp, err
			}
			event.Int("status", resp.StatusCode).Msg("graph request")
			return resp, nil
		})
	}
}

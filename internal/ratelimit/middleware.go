package ratelimit

import (
	"net"
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the Retry-After value sent when a client is
// over its limit.
const DefaultRetryAfterSeconds = 1

// Middleware enforces per-client limits on the wrapped handler. Clients are
// keyed by remote IP; requests over the limit get 429 with Retry-After and
// X-RateLimit-Remaining headers.
func Middleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientKey(r)

			bucket := limiter.GetLimiter(clientID)
			if !bucket.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte("Too Many Requests"))
				return
			}

			remaining := int(bucket.Tokens())
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

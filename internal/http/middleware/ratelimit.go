package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/davidbz/kiln/internal/config"
	"github.com/davidbz/kiln/internal/observability"
)

const rateLimitDetail = "Rate limit exceeded, retry later"

// RateLimit rejects requests beyond a process-wide token bucket with 429.
// A nil or disabled configuration yields a no-op middleware.
func RateLimit(cfg *config.RateLimitConfig) Middleware {
	if cfg == nil || !cfg.Enabled() {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				observability.FromContext(r.Context()).Warn("request rate limited",
					observability.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "1")
				writeDetail(w, http.StatusTooManyRequests, rateLimitDetail)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

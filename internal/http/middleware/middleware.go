package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/davidbz/kiln/internal/config"
	"github.com/davidbz/kiln/internal/domain"
)

// Middleware wraps an http.Handler with additional functionality.
// Middlewares can be composed using the Chain function.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middlewares into a single middleware.
// Middlewares are applied in the order they are provided, with the first
// middleware being the outermost wrapper (executed first on request).
//
// Example:
//
//	chain := Chain(CORS(corsConfig), Trace())
//	handler := chain(mux)
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		// Apply in reverse order so first middleware wraps outermost.
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Set groups the chains applied to each family of routes.
type Set struct {
	// Global wraps the whole mux.
	Global Middleware
	// Completion wraps the completion routes.
	Completion Middleware
	// Feedback wraps the feedback routes.
	Feedback Middleware
}

// BuildMiddlewareSet composes the middleware chains for production.
// Order matters: CORS -> Trace globally, then Auth -> RateLimit on
// completions and Auth on feedback.
func BuildMiddlewareSet(
	corsConfig *config.CORSConfig,
	rateLimitConfig *config.RateLimitConfig,
	guard *domain.AuthGuard,
) Set {
	return Set{
		Global:     Chain(CORS(corsConfig), Trace()),
		Completion: Chain(Auth(guard), RateLimit(rateLimitConfig)),
		Feedback:   Auth(guard),
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

package middleware

import (
	"net/http"

	"github.com/davidbz/kiln/internal/domain"
)

// Auth rejects requests whose Authorization header the guard refuses.
func Auth(guard *domain.AuthGuard) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.Verify(r.Header.Get("Authorization")); err != nil {
				writeDetail(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

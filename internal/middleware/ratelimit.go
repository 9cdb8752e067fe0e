package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/hongminglow/horoscope-be/internal/auth"
	"github.com/hongminglow/horoscope-be/internal/http/respond"
)

// RateLimit allows requestsPerMinute per authenticated user, falling back
// to the client IP for anonymous requests. Zero disables limiting.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByUser),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusTooManyRequests, "Too many requests. Please try again shortly.")
		}),
	)
}

func keyByUser(r *http.Request) (string, error) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return "user:" + claims.Subject, nil
	}
	return httprate.KeyByIP(r)
}

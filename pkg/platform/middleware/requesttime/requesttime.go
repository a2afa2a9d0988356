// Package requesttime pins one "now" per request so audit rows, due dates
// and stage timestamps written by the same request agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"caseflow/pkg/requestcontext"
)

// Middleware stamps the request with the current UTC time. Business-day
// arithmetic downstream assumes UTC.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

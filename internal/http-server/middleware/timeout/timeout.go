package timeout

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context. Order writes past the reservation
// detach from it, so a timeout never strands a reserved unit.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

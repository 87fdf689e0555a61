// Package requesttime pins a single "now" per request so every timestamp
// written while serving it (CreatedAt/UpdatedAt on both sides of a link) agrees.
package requesttime

import (
	"net/http"
	"time"

	"casefile/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context. A time already pinned upstream is kept.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pinned := r.Context().Value(requestcontext.ContextKeyRequestTime).(time.Time); pinned {
			next.ServeHTTP(w, r)
			return
		}
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

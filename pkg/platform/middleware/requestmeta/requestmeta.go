// Package requestmeta stamps each request with a correlation id and a fixed
// request time so logs can be tied together and services see one clock value
// per request.
package requestmeta

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"beatvault/pkg/requestcontext"
)

// Middleware injects a request id and request time into the context. An
// incoming X-Request-ID is honored so gateway-assigned ids survive.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

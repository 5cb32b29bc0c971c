// Package requestid assigns each request a correlation ID, propagated through
// the context and echoed in the X-Request-ID response header.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"gatewatch/pkg/requestcontext"
)

const headerName = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID when present, otherwise mints one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerName, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

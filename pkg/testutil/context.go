package testutil

import (
	"net/http"
	"time"

	"gatewatch/pkg/requestcontext"
)

// WithOperator stamps an authenticated operator name onto the request context.
// This simulates what the auth middleware does for requests that carried a
// valid bearer token.
func WithOperator(req *http.Request, operator string) *http.Request {
	return req.WithContext(requestcontext.WithOperator(req.Context(), operator))
}

// WithRequestID stamps a request ID onto the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithTime pins the request-scoped clock so handlers under test see a
// deterministic time.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

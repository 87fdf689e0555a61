package testutil

import (
	"net/http"
	"time"

	"casefile/pkg/requestcontext"
)

// WithRequestTime pins the request clock so services stamp deterministic
// CreatedAt/UpdatedAt values.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID sets the request ID header that the RequestID middleware echoes.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	req.Header.Set("X-Request-ID", requestID)
	return req
}

// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"context"
	"net/http"

	"github.com/glowbook/glowbook/internal/platform/telemetry"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID tags each request with an ID, reusing a well-formed incoming
// X-Request-ID, and echoes it on the response. The ID travels in a
// telemetry.RequestInfo so log lines written with the request context
// carry it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := telemetry.WithRequestInfo(r.Context(), &telemetry.RequestInfo{ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the current request's ID, or "".
func GetRequestID(ctx context.Context) string {
	if info := telemetry.RequestInfoFrom(ctx); info != nil {
		return info.ID
	}
	return ""
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		// Printable ASCII only; the value is echoed into headers and logs.
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

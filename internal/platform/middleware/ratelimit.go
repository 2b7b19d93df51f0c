package middleware

import (
	"net/http"
	"time"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/go-chi/httprate"
)

// RateLimit allows limit requests per window for each caller. Authenticated
// callers are keyed by user so a shared address does not throttle a whole
// salon; anonymous callers are keyed by client IP. The returned middleware
// shares one counter across every handler it wraps.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(keyByPrincipalOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusTooManyRequests, httpx.ErrorBody{
				Error: "too many requests",
				Code:  "rate_limited",
			})
		}),
	)
}

func keyByPrincipalOrIP(r *http.Request) (string, error) {
	if p := auth.GetPrincipal(r.Context()); p != nil && p.UserID != "" {
		return "user:" + p.UserID, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

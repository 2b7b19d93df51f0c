package middleware

import (
	"log/slog"
	"net/http"

	"github.com/unrolled/secure"
)

// Secure sets the API's security headers. In production plain HTTP is
// redirected to HTTPS and HSTS is sent; TLS may be terminated upstream.
func Secure(production bool) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		IsDevelopment:         !production,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Process has already written the redirect when it errors.
			if err := sm.Process(w, r); err != nil {
				slog.DebugContext(r.Context(), "secure middleware stopped request", "error", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/telemetry"
)

// Identity copies the authenticated principal's user and tenant into the
// request's log attributes. It must run after auth.Middleware.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := auth.GetPrincipal(r.Context())
		if p == nil {
			next.ServeHTTP(w, r)
			return
		}

		info := telemetry.RequestInfoFrom(r.Context())
		if info == nil {
			info = &telemetry.RequestInfo{}
			r = r.WithContext(telemetry.WithRequestInfo(r.Context(), info))
		}
		info.UserID = p.UserID
		info.TenantID = p.TenantID
		next.ServeHTTP(w, r)
	})
}

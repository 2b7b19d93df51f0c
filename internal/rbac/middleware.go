package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/platform/telemetry"
	"github.com/glowbook/glowbook/internal/role"
)

// AuditLogger is the audit interface for denial logging.
type AuditLogger interface {
	Log(ctx context.Context, event audit.Event)
}

// DecisionRecorder counts guard outcomes.
type DecisionRecorder interface {
	RecordDecision(operation, outcome string)
}

// MiddlewareOption configures RBAC middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	audit    AuditLogger
	recorder DecisionRecorder
}

// WithAuditLogger attaches an audit logger to log RBAC denials.
func WithAuditLogger(logger AuditLogger) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.audit = logger
	}
}

// WithDecisionRecorder attaches a recorder that counts every decision.
func WithDecisionRecorder(r DecisionRecorder) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.recorder = r
	}
}

// RequireRoles returns middleware enforcing the roles registered for op in
// table. The lookup happens once, when the middleware is built; an
// unregistered op denies every request.
func RequireRoles(guard Authorizer, table *RouteTable, op string, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	var mc middlewareConfig
	for _, opt := range opts {
		opt(&mc)
	}

	required, registered := table.Required(op)
	if !registered {
		slog.Error("operation missing from route table, all requests will be denied", "operation", op)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.GetPrincipal(r.Context())
			if p == nil {
				httpx.JSON(w, http.StatusUnauthorized, httpx.ErrorBody{
					Error: "authentication required",
					Code:  "unauthenticated",
				})
				return
			}

			if !registered {
				mc.deny(r, p, op, "route_not_configured")
				httpx.JSON(w, http.StatusForbidden, httpx.ErrorBody{
					Error:   "forbidden",
					Code:    "route_not_configured",
					Message: "operation has no authorization policy",
				})
				return
			}

			err := guard.Check(required, p.Roles)
			if err == nil {
				mc.record(op, "allow")
				next.ServeHTTP(w, r)
				return
			}

			var forbidden *ForbiddenError
			if errors.As(err, &forbidden) {
				mc.deny(r, p, op, "insufficient_role")
				httpx.JSON(w, http.StatusForbidden, httpx.ErrorBody{
					Error:         "forbidden",
					Code:          "insufficient_role",
					Message:       "requires one of: " + strings.Join(role.Strings(forbidden.Accepted), ", "),
					AcceptedRoles: role.Strings(forbidden.Accepted),
				})
				return
			}

			// Misconfigured requirement: fail closed without echoing the roles.
			mc.deny(r, p, op, "misconfigured")
			httpx.JSON(w, http.StatusForbidden, httpx.ErrorBody{
				Error: "forbidden",
				Code:  "insufficient_role",
			})
		})
	}
}

func (mc *middlewareConfig) record(op, outcome string) {
	if mc.recorder != nil {
		mc.recorder.RecordDecision(op, outcome)
	}
}

func (mc *middlewareConfig) deny(r *http.Request, p *auth.Principal, op, reason string) {
	mc.record(op, "deny")
	if mc.audit == nil {
		return
	}
	meta := map[string]any{
		audit.MetadataOperation: op,
		audit.MetadataReason:    reason,
		audit.MetadataRoles:     role.Strings(p.Roles),
	}
	if info := telemetry.RequestInfoFrom(r.Context()); info != nil && info.ID != "" {
		meta[audit.MetadataRequestID] = info.ID
	}
	mc.audit.Log(r.Context(), audit.Event{
		TenantID: audit.TenantIDFromContext(r.Context()),
		UserID:   audit.ActorIDFromContext(r.Context()),
		Action:   audit.ActionAccessDenied,
		Metadata: meta,
		Source:   "api",
	})
}

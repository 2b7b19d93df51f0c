package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
)

// Lister reads audit events.
type Lister interface {
	ListEvents(ctx context.Context, db database.Querier, p ListEventsParams) ([]EventRecord, error)
}

// Handler serves audit query endpoints.
type Handler struct {
	db       database.Querier
	lister   Lister
	resolver *scope.Resolver
}

// NewHandler creates an audit query handler.
func NewHandler(db database.Querier, lister Lister, resolver *scope.Resolver) *Handler {
	return &Handler{db: db, lister: lister, resolver: resolver}
}

var errInvalidFilter = httpx.NewError(httpx.ErrValidation, "invalid_filter", "invalid audit filter")

// HandleListEvents returns audit events visible to the caller. Owners are
// pinned to their own tenant; admins may pass tenant_id or see everything.
// GET /api/v1/audit/events?limit=50&after=<RFC3339>&action=...&tenant_id=...
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f, err := h.resolver.Audit(auth.GetPrincipal(r.Context()), scope.AuditFilter{TenantID: q.Get("tenant_id")})
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	limit, err := httpx.QueryLimit(r, 50, 200)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	params := ListEventsParams{Limit: limit}

	if f.TenantID != "" {
		tid, err := uuid.Parse(f.TenantID)
		if err != nil {
			httpx.RespondError(r.Context(), w, errInvalidFilter)
			return
		}
		params.TenantID = &tid
	}
	if v := q.Get("action"); v != "" {
		params.Action = &v
	}
	if v := q.Get("resource_type"); v != "" {
		params.ResourceType = &v
	}
	if v := q.Get("user_id"); v != "" {
		uid, err := uuid.Parse(v)
		if err != nil {
			httpx.RespondError(r.Context(), w, errInvalidFilter)
			return
		}
		params.UserID = &uid
	}
	for key, dst := range map[string]**time.Time{"after": &params.After, "before": &params.Before} {
		if v := q.Get(key); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				httpx.RespondError(r.Context(), w, errInvalidFilter)
				return
			}
			*dst = &ts
		}
	}

	if h.db == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"events": []EventRecord{}, "count": 0})
		return
	}

	events, err := h.lister.ListEvents(r.Context(), h.db, params)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

package tenant

import (
	"net/http"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/platform/httpx"
)

// Handler handles tenant HTTP endpoints. Every route is platform-admin
// only; the route table enforces that before the handler runs.
type Handler struct {
	store    Repository
	auditLog audit.Logger
}

// NewHandler creates a new tenant handler.
func NewHandler(store Repository, auditLog audit.Logger) *Handler {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Handler{store: store, auditLog: auditLog}
}

type createRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"omitempty,max=63"`
}

// HandleCreate creates a tenant. The slug is derived from the name when
// omitted.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, 10<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = SlugFromName(req.Name)
	}

	t, err := h.store.Create(r.Context(), req.Name, slug)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	h.auditLog.Log(r.Context(), audit.ResourceEvent(r.Context(), audit.ActionTenantCreated, "tenant", t.ID,
		map[string]any{"slug": t.Slug}))
	httpx.JSON(w, http.StatusCreated, t)
}

// HandleGet returns a tenant by ID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

// HandleList returns tenants.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryLimit(r, 100, 500)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	tenants, err := h.store.List(r.Context(), limit)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tenants)
}

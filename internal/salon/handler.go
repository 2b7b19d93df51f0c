package salon

import (
	"net/http"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
)

// Handler handles salon HTTP endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	TenantID string `json:"tenant_id" validate:"omitempty,uuid"`
	Name     string `json:"name" validate:"required,max=200"`
	Address  string `json:"address" validate:"max=500"`
	Phone    string `json:"phone" validate:"max=50"`
}

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

	s, err := h.svc.Create(r.Context(), auth.GetPrincipal(r.Context()), CreateInput{
		TenantID: req.TenantID,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

// HandleList lists salons.
// GET /api/v1/salons?tenant_id=...&active=true&limit=50
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := httpx.QueryLimit(r, defaultListLimit, 200)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	f := scope.SalonFilter{
		TenantID:   q.Get("tenant_id"),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
	}
	if f.TenantID != "" {
		if _, err := uuid.Parse(f.TenantID); err != nil {
			httpx.RespondError(r.Context(), w, ErrInvalidFilter)
			return
		}
	}

	salons, err := h.svc.List(r.Context(), auth.GetPrincipal(r.Context()), f)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, salons)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

type updateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Active  *bool   `json:"active"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(w, r, 10<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	s, err := h.svc.Update(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id"), UpdateInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Active:  req.Active,
	})
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

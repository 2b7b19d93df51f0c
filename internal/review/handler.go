package review

import (
	"net/http"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"max=2000"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, 8<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	rv, err := h.svc.Create(r.Context(), auth.GetPrincipal(r.Context()), CreateInput(req))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rv)
}

// HandleList lists reviews.
// GET /api/v1/reviews?salon_id=...&limit=50
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := httpx.QueryLimit(r, defaultListLimit, 200)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	f := scope.ReviewFilter{
		TenantID:   q.Get("tenant_id"),
		SalonID:    q.Get("salon_id"),
		CustomerID: q.Get("customer_id"),
		Limit:      limit,
	}
	for _, id := range []string{f.TenantID, f.SalonID, f.CustomerID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			httpx.RespondError(r.Context(), w, ErrInvalidFilter)
			return
		}
	}

	out, err := h.svc.List(r.Context(), auth.GetPrincipal(r.Context()), f)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id")); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

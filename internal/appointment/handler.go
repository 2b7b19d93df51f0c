package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
)

// Handler handles appointment HTTP endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type bookRequest struct {
	SalonID    string    `json:"salon_id" validate:"required,uuid"`
	StaffID    string    `json:"staff_id" validate:"omitempty,uuid"`
	CustomerID string    `json:"customer_id" validate:"omitempty,uuid"`
	Service    string    `json:"service" validate:"required,max=200"`
	Notes      string    `json:"notes" validate:"max=2000"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required"`
}

func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.DecodeJSON(w, r, 10<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	a, err := h.svc.Book(r.Context(), auth.GetPrincipal(r.Context()), BookInput(req))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

// HandleList lists appointments visible to the caller.
// GET /api/v1/appointments?salon_id=&staff_id=&customer_id=&status=&from=&to=&limit=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	out, err := h.svc.List(r.Context(), auth.GetPrincipal(r.Context()), f)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (scope.AppointmentFilter, error) {
	q := r.URL.Query()
	limit, err := httpx.QueryLimit(r, defaultListLimit, maxListLimit)
	if err != nil {
		return scope.AppointmentFilter{}, err
	}
	f := scope.AppointmentFilter{
		TenantID:   q.Get("tenant_id"),
		SalonID:    q.Get("salon_id"),
		CustomerID: q.Get("customer_id"),
		StaffID:    q.Get("staff_id"),
		Status:     q.Get("status"),
		Limit:      limit,
	}
	for _, id := range []string{f.TenantID, f.SalonID, f.CustomerID, f.StaffID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return scope.AppointmentFilter{}, ErrInvalidFilter
		}
	}
	switch f.Status {
	case "", StatusBooked, StatusConfirmed, StatusCompleted, StatusCancelled:
	default:
		return scope.AppointmentFilter{}, ErrInvalidFilter
	}
	for key, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if v := q.Get(key); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return scope.AppointmentFilter{}, ErrInvalidFilter
			}
			*dst = ts
		}
	}
	return f, nil
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

type rescheduleRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

func (h *Handler) HandleReschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := httpx.DecodeJSON(w, r, 4<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	a, err := h.svc.Reschedule(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id"), req.StartsAt, req.EndsAt)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Confirm)
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

type transitionFunc func(ctx context.Context, p *auth.Principal, id string) (*Appointment, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	a, err := fn(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

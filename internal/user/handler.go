package user

import (
	"net/http"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/google/uuid"
)

// Handler handles user HTTP endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes registers the unauthenticated sign-up route.
func (h *Handler) RegisterPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.HandleRegister)
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, 4<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	u, err := h.svc.Register(r.Context(), RegisterInput(req))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Me(r.Context(), auth.GetPrincipal(r.Context()))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

type createRequest struct {
	TenantID    string   `json:"tenant_id" validate:"omitempty,uuid"`
	Email       string   `json:"email" validate:"required,email,max=254"`
	Password    string   `json:"password" validate:"required,min=8,max=72"`
	DisplayName string   `json:"display_name" validate:"max=100"`
	Roles       []string `json:"roles" validate:"required,min=1,max=5"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, 4<<10, &req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	roles, err := role.ParseAll(req.Roles)
	if err != nil {
		httpx.RespondError(r.Context(), w, ErrInvalidRoles)
		return
	}

	u, err := h.svc.Create(r.Context(), auth.GetPrincipal(r.Context()), CreateInput{
		TenantID:    req.TenantID,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Roles:       roles,
	})
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

// HandleList lists accounts.
// GET /api/v1/users?tenant_id=...&role=STAFF&limit=50
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := httpx.QueryLimit(r, defaultListLimit, 200)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	f := scope.UserFilter{TenantID: q.Get("tenant_id"), Limit: limit}
	if f.TenantID != "" {
		if _, err := uuid.Parse(f.TenantID); err != nil {
			httpx.RespondError(r.Context(), w, ErrInvalidFilter)
			return
		}
	}
	if raw := q.Get("role"); raw != "" {
		rl, err := role.Parse(raw)
		if err != nil {
			httpx.RespondError(r.Context(), w, ErrInvalidFilter)
			return
		}
		f.Role = rl.String()
	}

	users, err := h.svc.List(r.Context(), auth.GetPrincipal(r.Context()), f)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), auth.GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// HandlerConfig holds the dependencies of the authentication endpoints.
type HandlerConfig struct {
	TokenSvc *TokenService
	Store    CredentialStore
}

// Handler handles authentication HTTP endpoints.
type Handler struct {
	tokenSvc *TokenService
	store    CredentialStore
	validate *validator.Validate
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		tokenSvc: cfg.TokenSvc,
		store:    cfg.Store,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public auth routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.HandleRefresh)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	Principal    *Principal `json:"principal"`
}

// HandleLogin exchanges email and password for an access/refresh token pair.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)

	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "credential store not configured"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	p, err := h.store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUserDisabled) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		slog.ErrorContext(r.Context(), "login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}

	h.issueTokens(w, p)
}

// HandleRefresh exchanges a refresh token for a new token pair. Roles are
// reloaded from the store so a revoked role is not carried forward.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<10)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.tokenSvc.ValidateToken(req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}
	if p.TokenType != "refresh" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh token required"})
		return
	}

	if h.store != nil {
		fresh, err := h.store.GetPrincipal(r.Context(), p.UserID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserDisabled) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
				return
			}
			slog.ErrorContext(r.Context(), "refresh principal reload failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token refresh failed"})
			return
		}
		p = fresh
	}

	h.issueTokens(w, p)
}

func (h *Handler) issueTokens(w http.ResponseWriter, p *Principal) {
	accessToken, err := h.tokenSvc.CreateAccessToken(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token creation failed"})
		return
	}
	refreshToken, err := h.tokenSvc.CreateRefreshToken(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token creation failed"})
		return
	}

	p.TokenType = "access"
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Principal:    p,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

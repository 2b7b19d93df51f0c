package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/glowbook/glowbook/internal/appointment"
	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/platform/metrics"
	"github.com/glowbook/glowbook/internal/platform/middleware"
	"github.com/glowbook/glowbook/internal/rbac"
	"github.com/glowbook/glowbook/internal/review"
	"github.com/glowbook/glowbook/internal/salon"
	"github.com/glowbook/glowbook/internal/tenant"
	"github.com/glowbook/glowbook/internal/user"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports database reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimit is the per-caller request budget. Auth applies to the public
// login, refresh and register routes.
type RateLimit struct {
	Requests     int
	AuthRequests int
	Window       time.Duration
}

// Dependencies holds all injected dependencies for the server.
type Dependencies struct {
	DB                 Pinger
	Auth               *auth.TokenService
	AuthHandler        *auth.Handler
	Guard              rbac.Authorizer
	Routes             *rbac.RouteTable
	TenantHandler      *tenant.Handler
	SalonHandler       *salon.Handler
	UserHandler        *user.Handler
	AppointmentHandler *appointment.Handler
	ReviewHandler      *review.Handler
	AuditHandler       *audit.Handler
	RBACAuditLogger    rbac.AuditLogger
	Metrics            *metrics.Metrics
	DevMode            bool
	DevPrincipal       *auth.Principal
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	RateLimit          RateLimit
	Production         bool
	TrustProxy         bool
}

type Server struct {
	httpServer *http.Server
	db         Pinger
	handler    http.Handler
}

// New builds the route table and middleware chain. Every protected route is
// registered on the top-level mux so request metrics are labelled with its
// pattern; each one runs auth, identity, rate limit and the role guard for
// its operation, in that order.
func New(addr string, deps Dependencies) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		db: deps.DB,
	}

	limits := deps.RateLimit
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	if limits.Requests <= 0 {
		limits.Requests = 300
	}
	if limits.AuthRequests <= 0 {
		limits.AuthRequests = 20
	}

	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	authMux := http.NewServeMux()
	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(authMux)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(authMux)
	}
	mux.Handle("POST /api/v1/auth/", middleware.RateLimit(limits.AuthRequests, limits.Window)(authMux))

	if deps.Auth != nil && deps.Guard != nil && deps.Routes != nil {
		authn := auth.Middleware(deps.Auth)
		if deps.DevMode && deps.DevPrincipal != nil {
			authn = auth.MiddlewareWithDevMode(deps.Auth, deps.DevPrincipal)
		}

		var rbacOpts []rbac.MiddlewareOption
		if deps.RBACAuditLogger != nil {
			rbacOpts = append(rbacOpts, rbac.WithAuditLogger(deps.RBACAuditLogger))
		}
		if deps.Metrics != nil {
			rbacOpts = append(rbacOpts, rbac.WithDecisionRecorder(deps.Metrics))
		}

		limiter := middleware.RateLimit(limits.Requests, limits.Window)
		protect := func(pattern, op string, h http.HandlerFunc) {
			guarded := rbac.RequireRoles(deps.Guard, deps.Routes, op, rbacOpts...)(h)
			mux.Handle(pattern, authn(middleware.Identity(limiter(guarded))))
		}

		registerProtected(protect, deps)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.ErrorBody{Error: "not found", Code: "route_not_found"})
	})

	// Outermost first: request ID and logging see every response, including
	// recovered panics and security redirects.
	var handler http.Handler = deps.Metrics.Middleware(mux)
	if len(deps.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(deps.CORSAllowedOrigins)(handler)
	}
	handler = middleware.Secure(deps.Production)(handler)
	handler = chimw.Recoverer(handler)
	if deps.Logger != nil {
		handler = middleware.Logging(deps.Logger)(handler)
	}
	handler = middleware.RequestID(handler)
	if deps.TrustProxy {
		handler = chimw.RealIP(handler)
	}

	s.handler = handler
	s.httpServer.Handler = handler
	return s
}

func registerProtected(protect func(pattern, op string, h http.HandlerFunc), deps Dependencies) {
	// Platform admin routes (tenant provisioning)
	if h := deps.TenantHandler; h != nil {
		protect("POST /api/v1/tenants", rbac.OpTenantsCreate, h.HandleCreate)
		protect("GET /api/v1/tenants", rbac.OpTenantsList, h.HandleList)
		protect("GET /api/v1/tenants/{id}", rbac.OpTenantsGet, h.HandleGet)
	}

	if h := deps.SalonHandler; h != nil {
		protect("POST /api/v1/salons", rbac.OpSalonsCreate, h.HandleCreate)
		protect("GET /api/v1/salons", rbac.OpSalonsList, h.HandleList)
		protect("GET /api/v1/salons/{id}", rbac.OpSalonsGet, h.HandleGet)
		protect("PATCH /api/v1/salons/{id}", rbac.OpSalonsUpdate, h.HandleUpdate)
	}

	if h := deps.UserHandler; h != nil {
		protect("GET /api/v1/users/me", rbac.OpUsersMe, h.HandleMe)
		protect("POST /api/v1/users", rbac.OpUsersCreate, h.HandleCreate)
		protect("GET /api/v1/users", rbac.OpUsersList, h.HandleList)
		protect("GET /api/v1/users/{id}", rbac.OpUsersGet, h.HandleGet)
	}

	if h := deps.AppointmentHandler; h != nil {
		protect("POST /api/v1/appointments", rbac.OpAppointmentsBook, h.HandleBook)
		protect("GET /api/v1/appointments", rbac.OpAppointmentsList, h.HandleList)
		protect("GET /api/v1/appointments/{id}", rbac.OpAppointmentsGet, h.HandleGet)
		protect("POST /api/v1/appointments/{id}/reschedule", rbac.OpAppointmentsReschedule, h.HandleReschedule)
		protect("POST /api/v1/appointments/{id}/cancel", rbac.OpAppointmentsCancel, h.HandleCancel)
		protect("POST /api/v1/appointments/{id}/confirm", rbac.OpAppointmentsConfirm, h.HandleConfirm)
		protect("POST /api/v1/appointments/{id}/complete", rbac.OpAppointmentsComplete, h.HandleComplete)
	}

	if h := deps.ReviewHandler; h != nil {
		protect("POST /api/v1/reviews", rbac.OpReviewsCreate, h.HandleCreate)
		protect("GET /api/v1/reviews", rbac.OpReviewsList, h.HandleList)
		protect("DELETE /api/v1/reviews/{id}", rbac.OpReviewsDelete, h.HandleDelete)
	}

	if h := deps.AuditHandler; h != nil {
		protect("GET /api/v1/audit/events", rbac.OpAuditList, h.HandleListEvents)
	}
}

// Handler returns the full middleware-wrapped handler chain (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}

	slog.Info("server starting", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database not connected",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		slog.WarnContext(r.Context(), "readiness ping failed", "error", err)
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/metrics"
	"github.com/glowbook/glowbook/internal/platform/server"
	"github.com/glowbook/glowbook/internal/rbac"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key-must-be-32-chars!!"

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type tenantRepo struct{}

func (tenantRepo) Create(_ context.Context, name, slug string) (*tenant.Tenant, error) {
	return &tenant.Tenant{ID: "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", Name: name, Slug: slug, Status: "active"}, nil
}

func (tenantRepo) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	return nil, tenant.ErrTenantNotFound
}

func (tenantRepo) List(context.Context, int) ([]tenant.Tenant, error) {
	return []tenant.Tenant{{ID: "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", Name: "Rose Beauty", Slug: "rose-beauty"}}, nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func newTestDeps(t *testing.T) (server.Dependencies, *auth.TokenService) {
	t.Helper()
	h := role.Default()
	table, err := rbac.NewRouteTable(h, rbac.DefaultRoutes())
	require.NoError(t, err)

	tokenSvc := auth.NewTokenService(testSigningKey, "glowbook", 24, 168)
	return server.Dependencies{
		Auth:          tokenSvc,
		AuthHandler:   auth.NewHandler(auth.HandlerConfig{TokenSvc: tokenSvc}),
		Guard:         rbac.NewGuard(h),
		Routes:        table,
		TenantHandler: tenant.NewHandler(tenantRepo{}, audit.NopLogger{}),
		Metrics:       metrics.New(),
	}, tokenSvc
}

func bearer(t *testing.T, svc *auth.TokenService, roles ...role.Role) string {
	t.Helper()
	token, err := svc.CreateAccessToken(&auth.Principal{
		UserID: "3f0c9d2e-1111-4c1a-9b7e-2a6d5c4b3a21",
		Roles:  roles,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(h http.Handler, method, target, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_HealthCheck(t *testing.T) {
	srv := server.New(":0", server.Dependencies{})

	w := serve(srv.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestServer_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name string
		db   server.Pinger
		want int
	}{
		{"no database", nil, http.StatusServiceUnavailable},
		{"ping fails", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"ready", stubPinger{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := server.New(":0", server.Dependencies{DB: tt.db})
			assert.Equal(t, tt.want, serve(srv.Handler(), http.MethodGet, "/readyz", "").Code)
		})
	}
}

func TestServer_NotFound(t *testing.T) {
	srv := server.New(":0", server.Dependencies{})

	w := serve(srv.Handler(), http.MethodGet, "/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route_not_found")
}

func TestServer_StartStop(t *testing.T) {
	srv := server.New("127.0.0.1:0", server.Dependencies{})

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	cancel()

	assert.NoError(t, <-errCh)
}

func TestServer_ProtectedRoute_NoToken(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := server.New(":0", deps)

	assert.Equal(t, http.StatusUnauthorized, serve(srv.Handler(), http.MethodGet, "/api/v1/tenants", "").Code)
}

func TestServer_ProtectedRoute_InsufficientRole(t *testing.T) {
	deps, tokenSvc := newTestDeps(t)
	auditLog := &recordingAudit{}
	deps.RBACAuditLogger = auditLog
	srv := server.New(":0", deps)

	w := serve(srv.Handler(), http.MethodGet, "/api/v1/tenants", bearer(t, tokenSvc, role.Owner))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_role", body["code"])
	assert.Equal(t, []any{"ADMIN"}, body["accepted_roles"])

	require.Len(t, auditLog.events, 1)
	assert.Equal(t, rbac.OpTenantsList, auditLog.events[0].Metadata[audit.MetadataOperation])
	assert.Equal(t, w.Header().Get("X-Request-ID"), auditLog.events[0].Metadata[audit.MetadataRequestID])
}

func TestServer_ProtectedRoute_HierarchyAllows(t *testing.T) {
	deps, tokenSvc := newTestDeps(t)
	srv := server.New(":0", deps)

	w := serve(srv.Handler(), http.MethodGet, "/api/v1/tenants", bearer(t, tokenSvc, role.Admin))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rose-beauty")
}

func TestServer_ProtectedRoute_DevMode(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.DevMode = true
	deps.DevPrincipal = &auth.Principal{UserID: "dev-user", Roles: []role.Role{role.Admin}, TokenType: "access"}
	srv := server.New(":0", deps)

	assert.Equal(t, http.StatusOK, serve(srv.Handler(), http.MethodGet, "/api/v1/tenants", "Bearer dev").Code)
}

func TestServer_MetricsLabelledByPattern(t *testing.T) {
	deps, tokenSvc := newTestDeps(t)
	srv := server.New(":0", deps)

	serve(srv.Handler(), http.MethodGet, "/api/v1/tenants", bearer(t, tokenSvc, role.Staff))
	serve(srv.Handler(), http.MethodGet, "/api/v1/tenants/a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", bearer(t, tokenSvc, role.Admin))

	w := serve(srv.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `glowbook_authz_decisions_total{operation="tenants.list",outcome="deny"} 1`)
	assert.Contains(t, out, `glowbook_authz_decisions_total{operation="tenants.get",outcome="allow"} 1`)
	assert.Contains(t, out, `route="GET /api/v1/tenants/{id}"`)
}

func TestServer_AuthRoutesRateLimited(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.RateLimit = server.RateLimit{Requests: 100, AuthRequests: 1, Window: time.Minute}
	srv := server.New(":0", deps)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:1234"
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		return w.Code
	}

	assert.NotEqual(t, http.StatusTooManyRequests, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}

func TestServer_CORSPreflight(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.CORSAllowedOrigins = []string{"https://app.glowbook.test"}
	srv := server.New(":0", deps)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/salons", nil)
	req.Header.Set("Origin", "https://app.glowbook.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.glowbook.test", w.Header().Get("Access-Control-Allow-Origin"))
}

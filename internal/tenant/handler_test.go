package tenant_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	tenants []tenant.Tenant
}

func (f *fakeRepo) Create(_ context.Context, name, slug string) (*tenant.Tenant, error) {
	if err := tenant.ValidateSlug(slug); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.Slug == slug {
			return nil, fmt.Errorf("%w: %s", tenant.ErrSlugTaken, slug)
		}
	}
	t := tenant.Tenant{
		ID:        fmt.Sprintf("00000000-0000-0000-0000-%012d", len(f.tenants)+1),
		Name:      name,
		Slug:      slug,
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.tenants = append(f.tenants, t)
	return &t, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (f *fakeRepo) List(_ context.Context, limit int) ([]tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.tenants) {
		limit = len(f.tenants)
	}
	return append([]tenant.Tenant{}, f.tenants[:limit]...), nil
}

// captureLogger is a test helper that captures audit events.
type captureLogger struct {
	mu     sync.Mutex
	events []audit.Event
}

func (l *captureLogger) Log(_ context.Context, e audit.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *captureLogger) Close() error { return nil }

func withPlatformAdmin(req *http.Request) *http.Request {
	p := &auth.Principal{
		UserID: "5b1f3c9e-0000-4000-8000-000000000001",
		Roles:  []role.Role{role.Admin},
	}
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

func TestHandler_CreateTenant(t *testing.T) {
	logger := &captureLogger{}
	handler := tenant.NewHandler(&fakeRepo{}, logger)

	body := `{"name": "Rose Beauty", "slug": "rose-beauty"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(body))
	req = withPlatformAdmin(req)
	w := httptest.NewRecorder()

	handler.HandleCreate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp tenant.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rose Beauty", resp.Name)
	assert.Equal(t, "rose-beauty", resp.Slug)
	assert.NotEmpty(t, resp.ID)

	require.Len(t, logger.events, 1)
	assert.Equal(t, audit.ActionTenantCreated, logger.events[0].Action)
	assert.Nil(t, logger.events[0].TenantID, "platform admin acts outside any tenant")
	require.NotNil(t, logger.events[0].ResourceID)
	assert.Equal(t, resp.ID, logger.events[0].ResourceID.String())
}

func TestHandler_CreateTenant_InvalidSlug(t *testing.T) {
	handler := tenant.NewHandler(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(`{"name": "Bad", "slug": "api"}`))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, withPlatformAdmin(req))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid_slug"`)
}

func TestHandler_CreateTenant_MissingFields(t *testing.T) {
	handler := tenant.NewHandler(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(`{"slug": "rose-beauty"}`))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, withPlatformAdmin(req))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreateTenant_DuplicateSlug(t *testing.T) {
	repo := &fakeRepo{}
	handler := tenant.NewHandler(repo, nil)
	_, err := repo.Create(context.Background(), "Rose Beauty", "rose-beauty")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(`{"name": "Other", "slug": "rose-beauty"}`))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, withPlatformAdmin(req))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_GetTenant(t *testing.T) {
	repo := &fakeRepo{}
	handler := tenant.NewHandler(repo, nil)
	created, err := repo.Create(context.Background(), "Rose Beauty", "rose-beauty")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	w := httptest.NewRecorder()

	handler.HandleGet(w, withPlatformAdmin(req))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp tenant.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rose Beauty", resp.Name)
}

func TestHandler_GetTenant_NotFound(t *testing.T) {
	handler := tenant.NewHandler(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.HandleGet(w, withPlatformAdmin(req))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ListTenants(t *testing.T) {
	repo := &fakeRepo{}
	handler := tenant.NewHandler(repo, nil)
	_, err := repo.Create(context.Background(), "Tenant A", "tenant-a")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), "Tenant B", "tenant-b")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants", nil)
	w := httptest.NewRecorder()

	handler.HandleList(w, withPlatformAdmin(req))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []tenant.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestHandler_CreateTenant_DerivesSlug(t *testing.T) {
	handler := tenant.NewHandler(&fakeRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants", strings.NewReader(`{"name": "Rose & Co. Beauty"}`))
	w := httptest.NewRecorder()

	handler.HandleCreate(w, withPlatformAdmin(req))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp tenant.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rose-co-beauty", resp.Slug)
	assert.Equal(t, "active", resp.Status)
}

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBatchInsert(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	events := []Event{
		{
			TenantID:     &tenantID,
			UserID:       &userID,
			Action:       ActionAppointmentBooked,
			ResourceType: "appointment",
			Metadata:     map[string]any{"salon_id": "s-1"},
			Source:       "api",
		},
		{
			Action: ActionAccessDenied,
		},
	}

	sql, args, err := buildBatchInsert(events)
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO audit_events")
	assert.Contains(t, sql, "($1, $2, $3, $4, $5, $6, $7)")
	assert.Contains(t, sql, "($8, $9, $10, $11, $12, $13, $14)")
	assert.Len(t, args, 14)
	assert.Equal(t, &tenantID, args[0])

	// Platform-level event: nil tenant, default source, NULL resource type.
	assert.Nil(t, args[7])
	assert.Nil(t, args[10])
	assert.Equal(t, "api", args[13])
}

func TestInsertBatch_Empty(t *testing.T) {
	store := NewStore()
	err := store.InsertBatch(context.Background(), nil, nil)
	require.NoError(t, err)
}

func TestBuildListQuery_PlatformNoFilters(t *testing.T) {
	sql, args := buildListQuery(ListEventsParams{Limit: 50})
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "LIMIT $1")
	assert.Equal(t, []any{50}, args)
}

func TestBuildListQuery_TenantScoped(t *testing.T) {
	tenantID := uuid.New()
	sql, args := buildListQuery(ListEventsParams{TenantID: &tenantID, Limit: 50})
	assert.Contains(t, sql, "WHERE tenant_id = $1")
	assert.Contains(t, sql, "LIMIT $2")
	assert.Equal(t, tenantID, args[0])
	assert.Equal(t, 50, args[1])
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	action := ActionUserCreated
	resType := "user"
	after := time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC)

	sql, args := buildListQuery(ListEventsParams{
		TenantID:     &tenantID,
		Action:       &action,
		ResourceType: &resType,
		UserID:       &userID,
		After:        &after,
		Before:       &before,
		Limit:        100,
	})
	assert.Contains(t, sql, "action = $2")
	assert.Contains(t, sql, "resource_type = $3")
	assert.Contains(t, sql, "user_id = $4")
	assert.Contains(t, sql, "created_at > $5")
	assert.Contains(t, sql, "created_at < $6")
	assert.Contains(t, sql, "LIMIT $7")
	assert.Len(t, args, 7)
}

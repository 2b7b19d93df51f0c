package salon_test

import (
	"context"
	"testing"

	"github.com/glowbook/glowbook/internal/platform/database/dbtest"
	"github.com/glowbook/glowbook/internal/salon"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool, cleanup := dbtest.Setup(t)
	defer cleanup()
	ctx := context.Background()

	a := dbtest.SeedTenant(t, pool, "Rose Group", "rose-group")
	b := dbtest.SeedTenant(t, pool, "Lily Group", "lily-group")
	store := salon.NewStore(pool)

	created, err := store.Create(ctx, &salon.Salon{TenantID: a, Name: "Rose Soho", Address: "1 High St", Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, a, created.TenantID)

	_, err = store.Create(ctx, &salon.Salon{TenantID: a, Name: "Rose Camden", Active: false})
	require.NoError(t, err)
	dbtest.SeedSalon(t, pool, b, "Lily Chelsea", true)

	t.Run("get", func(t *testing.T) {
		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "1 High St", got.Address)

		_, err = store.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, salon.ErrSalonNotFound)
		_, err = store.GetByID(ctx, "33333333-3333-4333-8333-333333333333")
		assert.ErrorIs(t, err, salon.ErrSalonNotFound)
	})

	t.Run("list by tenant", func(t *testing.T) {
		got, err := store.List(ctx, scope.SalonFilter{TenantID: a})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Rose Camden", got[0].Name)
	})

	t.Run("list active across tenants", func(t *testing.T) {
		got, err := store.List(ctx, scope.SalonFilter{ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, s := range got {
			assert.True(t, s.Active)
		}
	})

	t.Run("list limit", func(t *testing.T) {
		got, err := store.List(ctx, scope.SalonFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("update", func(t *testing.T) {
		changed := *created
		changed.Name = "Rose Mayfair"
		changed.Active = false
		changed.TenantID = b

		got, err := store.Update(ctx, &changed)
		require.NoError(t, err)
		assert.Equal(t, "Rose Mayfair", got.Name)
		assert.False(t, got.Active)
		assert.Equal(t, a, got.TenantID)
		assert.True(t, got.UpdatedAt.After(created.UpdatedAt) || got.UpdatedAt.Equal(created.UpdatedAt))
	})
}

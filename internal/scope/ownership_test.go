package scope_test

import (
	"testing"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertCanView_OwnerOtherTenantIsNotFound(t *testing.T) {
	s := newResolver()
	appt := scope.Ownership{TenantID: "t2", CustomerID: "c1", StaffID: "s1"}

	err := s.AssertCanView(principal("o1", "t1", role.Owner), appt)
	assert.ErrorIs(t, err, scope.ErrNotFound)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestAssertCanMutate(t *testing.T) {
	s := newResolver()
	appt := scope.Ownership{TenantID: "t1", CustomerID: "c1", StaffID: "s1"}

	tests := []struct {
		name string
		p    *principalCase
		want error
	}{
		{"admin any tenant", &principalCase{"a1", "", role.Admin}, nil},
		{"owner same tenant", &principalCase{"o1", "t1", role.Owner}, nil},
		{"owner other tenant", &principalCase{"o2", "t2", role.Owner}, scope.ErrNotFound},
		{"assigned staff", &principalCase{"s1", "t1", role.Staff}, nil},
		{"unassigned staff same tenant", &principalCase{"s2", "t1", role.Staff}, scope.ErrForbidden},
		{"staff other tenant", &principalCase{"s1", "t2", role.Staff}, scope.ErrNotFound},
		{"owning customer", &principalCase{"c1", "", role.Customer}, nil},
		{"other customer", &principalCase{"c2", "", role.Customer}, scope.ErrNotFound},
		{"owning customer of the tenant", &principalCase{"c1", "t1", role.Customer}, nil},
		{"owning customer of another tenant", &principalCase{"c1", "t2", role.Customer}, scope.ErrNotFound},
		{"guest", &principalCase{"g1", "", role.Guest}, scope.ErrNotFound},
		{"no roles", &principalCase{"x1", "t1", ""}, scope.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AssertCanMutate(tt.p.principal(), appt)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAssert_TenantWideRecords(t *testing.T) {
	s := newResolver()
	salon := scope.Ownership{TenantID: "t1", TenantWide: true}
	staff := principal("s1", "t1", role.Staff)

	assert.NoError(t, s.AssertCanView(staff, salon))
	assert.ErrorIs(t, s.AssertCanMutate(staff, salon), scope.ErrForbidden)
	assert.NoError(t, s.AssertCanMutate(principal("o1", "t1", role.Owner), salon))
}

func TestAssert_PublicRecords(t *testing.T) {
	s := newResolver()
	activeSalon := scope.Ownership{TenantID: "t1", TenantWide: true, Public: true}
	hiddenSalon := scope.Ownership{TenantID: "t1", TenantWide: true}
	guest := principal("g1", "", role.Guest)

	assert.NoError(t, s.AssertCanView(guest, activeSalon))
	assert.NoError(t, s.AssertCanView(principal("o2", "t2", role.Owner), activeSalon))
	assert.ErrorIs(t, s.AssertCanView(guest, hiddenSalon), scope.ErrNotFound)
	assert.ErrorIs(t, s.AssertCanMutate(guest, activeSalon), scope.ErrNotFound)
	assert.ErrorIs(t, s.AssertCanMutate(principal("c1", "", role.Customer), activeSalon), scope.ErrNotFound)
}

func TestAssert_RecordWithoutTenantNeverMatchesTenantScope(t *testing.T) {
	s := newResolver()
	customerAccount := scope.Ownership{CustomerID: "c1", StaffID: "c1", TenantWide: true}

	assert.ErrorIs(t, s.AssertCanView(principal("o1", "t1", role.Owner), customerAccount), scope.ErrNotFound)
	assert.ErrorIs(t, s.AssertCanView(principal("s1", "t1", role.Staff), customerAccount), scope.ErrNotFound)
	assert.NoError(t, s.AssertCanView(principal("c1", "", role.Customer), customerAccount))
}

func TestAssert_TenantBoundCustomerMatchesListFilter(t *testing.T) {
	s := newResolver()
	cust := principal("c1", "t1", role.Customer)
	home := scope.Ownership{TenantID: "t1", CustomerID: "c1", StaffID: "s1"}
	away := scope.Ownership{TenantID: "t2", CustomerID: "c1", StaffID: "s2"}

	f, err := s.Appointments(cust, scope.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "t1", f.TenantID)

	assert.NoError(t, s.AssertCanView(cust, home))
	assert.ErrorIs(t, s.AssertCanView(cust, away), scope.ErrNotFound)
	assert.ErrorIs(t, s.AssertCanMutate(cust, away), scope.ErrNotFound)

	// A platform-level customer spans tenants on both paths.
	roaming := principal("c1", "", role.Customer)
	assert.NoError(t, s.AssertCanView(roaming, away))
	f, err = s.Appointments(roaming, scope.AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, f.TenantID)
}

func TestAssert_TenantlessStaffActsAsCustomer(t *testing.T) {
	s := newResolver()
	appt := scope.Ownership{TenantID: "t1", CustomerID: "s1", StaffID: "s2"}

	assert.NoError(t, s.AssertCanMutate(principal("s1", "", role.Staff), appt))
	assert.ErrorIs(t, s.AssertCanMutate(principal("s3", "", role.Staff), appt), scope.ErrNotFound)
}

type principalCase struct {
	id, tenant string
	role       role.Role
}

func (c *principalCase) principal() *auth.Principal {
	if c.role == "" {
		return principal(c.id, c.tenant)
	}
	return principal(c.id, c.tenant, c.role)
}

package rbac

import (
	"fmt"
	"slices"
	"sort"

	"github.com/glowbook/glowbook/internal/role"
)

// Operation identifiers. Each protected endpoint is registered under one.
const (
	OpTenantsCreate = "tenants.create"
	OpTenantsList   = "tenants.list"
	OpTenantsGet    = "tenants.get"

	OpSalonsCreate = "salons.create"
	OpSalonsList   = "salons.list"
	OpSalonsGet    = "salons.get"
	OpSalonsUpdate = "salons.update"

	OpUsersMe     = "users.me"
	OpUsersCreate = "users.create"
	OpUsersList   = "users.list"
	OpUsersGet    = "users.get"

	OpAppointmentsBook       = "appointments.book"
	OpAppointmentsList       = "appointments.list"
	OpAppointmentsGet        = "appointments.get"
	OpAppointmentsReschedule = "appointments.reschedule"
	OpAppointmentsCancel     = "appointments.cancel"
	OpAppointmentsConfirm    = "appointments.confirm"
	OpAppointmentsComplete   = "appointments.complete"

	OpReviewsCreate = "reviews.create"
	OpReviewsList   = "reviews.list"
	OpReviewsDelete = "reviews.delete"

	OpAuditList = "audit.list"
)

// DefaultRoutes is the platform's operation to required-roles table.
// Requirements name the least privileged accepted role; the hierarchy
// lets the roles above it through. An empty list means any authenticated
// caller.
func DefaultRoutes() map[string][]role.Role {
	return map[string][]role.Role{
		OpTenantsCreate: {role.Admin},
		OpTenantsList:   {role.Admin},
		OpTenantsGet:    {role.Admin},

		OpSalonsCreate: {role.Owner},
		OpSalonsList:   {},
		OpSalonsGet:    {},
		OpSalonsUpdate: {role.Owner},

		OpUsersMe:     {},
		OpUsersCreate: {role.Owner},
		OpUsersList:   {role.Staff},
		OpUsersGet:    {role.Staff},

		OpAppointmentsBook:       {role.Customer},
		OpAppointmentsList:       {role.Customer},
		OpAppointmentsGet:        {role.Customer},
		OpAppointmentsReschedule: {role.Customer},
		OpAppointmentsCancel:     {role.Customer},
		OpAppointmentsConfirm:    {role.Staff},
		OpAppointmentsComplete:   {role.Staff},

		OpReviewsCreate: {role.Customer},
		OpReviewsList:   {role.Customer},
		OpReviewsDelete: {role.Customer},

		OpAuditList: {role.Owner},
	}
}

// RouteTable maps operation identifiers to required roles. It is validated
// at construction and read-only afterwards.
type RouteTable struct {
	routes map[string][]role.Role
}

// NewRouteTable validates every requirement against the hierarchy. An
// unknown role is a boot-time error rather than a per-request deny.
func NewRouteTable(h *role.Hierarchy, routes map[string][]role.Role) (*RouteTable, error) {
	t := &RouteTable{routes: make(map[string][]role.Role, len(routes))}
	for op, required := range routes {
		if op == "" {
			return nil, fmt.Errorf("empty operation identifier")
		}
		for _, r := range required {
			if !h.Known(r) {
				return nil, fmt.Errorf("operation %s: %w: %q", op, role.ErrUnknownRole, r)
			}
		}
		t.routes[op] = slices.Clone(required)
	}
	return t, nil
}

// Required returns the roles accepted for op. ok is false for an
// operation that was never registered.
func (t *RouteTable) Required(op string) (required []role.Role, ok bool) {
	required, ok = t.routes[op]
	return slices.Clone(required), ok
}

// Operations lists the registered operation identifiers in sorted order.
func (t *RouteTable) Operations() []string {
	ops := make([]string, 0, len(t.routes))
	for op := range t.routes {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Package scope narrows resource queries and single-record access to what
// a principal is entitled to see. Filters override client-supplied values
// instead of validating them, so a tampered request cannot widen its scope
// and learns nothing from being narrowed.
package scope

import (
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/role"
)

var (
	// ErrNotFound is returned both for absent records and for records
	// outside the caller's tenant or customer scope.
	ErrNotFound = httpx.NewError(httpx.ErrNotFound, "not_found", "resource not found")
	// ErrForbidden is returned for same-tenant records the caller is not
	// assigned to.
	ErrForbidden = httpx.NewError(httpx.ErrForbidden, "not_assigned", "record is not assigned to caller")
	// ErrNoVisibility is returned when the caller's roles grant no view of
	// a resource collection.
	ErrNoVisibility = httpx.NewError(httpx.ErrForbidden, "no_visibility", "role grants no access to this resource")
)

// Level is the breadth of data a principal may see.
type Level int

const (
	LevelNone Level = iota
	LevelSelf
	LevelAssigned
	LevelTenant
	LevelPlatform
)

func (l Level) String() string {
	switch l {
	case LevelSelf:
		return "self"
	case LevelAssigned:
		return "assigned"
	case LevelTenant:
		return "tenant"
	case LevelPlatform:
		return "platform"
	default:
		return "none"
	}
}

// Resolver derives visibility from a principal's roles through the
// role hierarchy. It is read-only and safe for concurrent use.
type Resolver struct {
	hierarchy *role.Hierarchy
}

func NewResolver(h *role.Hierarchy) *Resolver {
	return &Resolver{hierarchy: h}
}

// Level returns the visibility level granted by p's most privileged role.
// Levels do not combine: a staff member sees bookings assigned to them,
// not bookings they made as a customer. Owner and staff roles held
// without a tenant fall back to customer visibility, which their
// expansion includes.
func (s *Resolver) Level(p *auth.Principal) Level {
	if p == nil {
		return LevelNone
	}
	top, ok := s.hierarchy.Highest(p.Roles)
	if !ok {
		return LevelNone
	}
	switch top {
	case role.Admin:
		return LevelPlatform
	case role.Owner:
		if p.PlatformLevel() {
			return LevelSelf
		}
		return LevelTenant
	case role.Staff:
		if p.PlatformLevel() {
			return LevelSelf
		}
		return LevelAssigned
	case role.Customer:
		return LevelSelf
	default:
		return LevelNone
	}
}

package rbac

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glowbook/glowbook/internal/role"
)

var (
	// ErrRouteNotConfigured is returned for an operation missing from the route table.
	ErrRouteNotConfigured = errors.New("route not configured")
	// ErrMisconfigured is returned when a required role is unknown to the hierarchy.
	ErrMisconfigured = errors.New("role requirement misconfigured")
)

// ForbiddenError is a deny decision for insufficient roles. Accepted lists
// the roles that would have been let through.
type ForbiddenError struct {
	Accepted []role.Role
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: requires one of: %s", strings.Join(role.Strings(e.Accepted), ", "))
}

// Authorizer decides whether held roles satisfy a requirement.
type Authorizer interface {
	Check(required, held []role.Role) error
}

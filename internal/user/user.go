// Package user manages accounts: customer self-registration and the staff
// and owner accounts a tenant administers.
package user

import (
	"context"
	"time"

	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/scope"
)

var (
	ErrUserNotFound   = httpx.NewError(httpx.ErrNotFound, "user_not_found", "user not found")
	ErrEmailTaken     = httpx.NewError(httpx.ErrConflict, "email_taken", "email already registered")
	ErrUnknownTenant  = httpx.NewError(httpx.ErrValidation, "unknown_tenant", "tenant does not exist")
	ErrTenantRequired = httpx.NewError(httpx.ErrValidation, "tenant_required", "tenant_id is required for owner and staff accounts")
	ErrRoleEscalation = httpx.NewError(httpx.ErrForbidden, "role_escalation", "cannot grant a role you do not hold")
	ErrInvalidRoles   = httpx.NewError(httpx.ErrValidation, "invalid_roles", "at least one known role is required")
	ErrInvalidFilter  = httpx.NewError(httpx.ErrValidation, "invalid_filter", "invalid user filter")
)

// User is an account. An empty TenantID marks a platform-level account.
type User struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id,omitempty"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Status      string      `json:"status"`
	Roles       []role.Role `json:"roles"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Ownership returns the scoping fields of u. Accounts are visible to their
// holder and, within a tenant, to its owners and staff.
func (u *User) Ownership() scope.Ownership {
	return scope.Ownership{TenantID: u.TenantID, CustomerID: u.ID, StaffID: u.ID, TenantWide: true}
}

// Repository is the persistence contract of the user service.
type Repository interface {
	Create(ctx context.Context, u *User, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, f scope.UserFilter) ([]User, error)
}

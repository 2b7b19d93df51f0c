package auth

import (
	"context"
	"errors"

	"github.com/glowbook/glowbook/internal/role"
)

var (
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
)

// Principal is the authenticated caller of a single request.
// An empty TenantID means the principal is not bound to a tenant: platform
// administrators and self-registered customers.
type Principal struct {
	UserID      string      `json:"user_id"`
	TenantID    string      `json:"tenant_id,omitempty"`
	Email       string      `json:"email,omitempty"`
	DisplayName string      `json:"display_name,omitempty"`
	Roles       []role.Role `json:"roles"`
	TokenType   string      `json:"token_type"` // "access" or "refresh"
}

// PlatformLevel reports whether the principal is outside any tenant.
func (p *Principal) PlatformLevel() bool {
	return p != nil && p.TenantID == ""
}

// CredentialStore loads principals for login and refresh.
type CredentialStore interface {
	// Authenticate verifies email and password and returns the user's principal.
	Authenticate(ctx context.Context, email, password string) (*Principal, error)
	// GetPrincipal reloads a principal with its current roles.
	GetPrincipal(ctx context.Context, userID string) (*Principal, error)
}

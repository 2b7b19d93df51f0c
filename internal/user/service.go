package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/scope"
	"golang.org/x/crypto/bcrypt"
)

// Service manages accounts.
type Service struct {
	repo       Repository
	hierarchy  *role.Hierarchy
	resolver   *scope.Resolver
	auditLog   audit.Logger
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(repo Repository, h *role.Hierarchy, auditLog audit.Logger, opts ...Option) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	s := &Service{
		repo:       repo,
		hierarchy:  h,
		resolver:   scope.NewResolver(h),
		auditLog:   auditLog,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is a customer signing themselves up.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Register creates a platform-level customer account. It is the only
// unauthenticated way to obtain an account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, &User{
		Email:       normalizeEmail(in.Email),
		DisplayName: in.DisplayName,
		Roles:       []role.Role{role.Customer},
	}, hash)
	if err != nil {
		return nil, err
	}

	ev := audit.ResourceEvent(ctx, audit.ActionUserRegistered, "user", u.ID, nil)
	ev.UserID = ev.ResourceID
	s.auditLog.Log(ctx, ev)
	return u, nil
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, p *auth.Principal) (*User, error) {
	if p == nil {
		return nil, ErrUserNotFound
	}
	return s.repo.GetByID(ctx, p.UserID)
}

// CreateInput is an account created on someone's behalf.
type CreateInput struct {
	TenantID    string
	Email       string
	Password    string
	DisplayName string
	Roles       []role.Role
}

// Create adds an account for staff, owners or, for platform admins, other
// admins. A caller may only grant roles its own roles already cover, and
// owners always create inside their own tenant.
func (s *Service) Create(ctx context.Context, p *auth.Principal, in CreateInput) (*User, error) {
	if len(in.Roles) == 0 {
		return nil, ErrInvalidRoles
	}
	held := s.hierarchy.Effective(callerRoles(p))
	for _, r := range in.Roles {
		if !r.Valid() {
			return nil, ErrInvalidRoles
		}
		if _, ok := held[r]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrRoleEscalation, r)
		}
	}

	switch s.resolver.Level(p) {
	case scope.LevelPlatform:
		if in.TenantID == "" && tenantBound(in.Roles) {
			return nil, ErrTenantRequired
		}
	case scope.LevelTenant:
		in.TenantID = p.TenantID
	default:
		return nil, scope.ErrNoVisibility
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, &User{
		TenantID:    in.TenantID,
		Email:       normalizeEmail(in.Email),
		DisplayName: in.DisplayName,
		Roles:       in.Roles,
	}, hash)
	if err != nil {
		return nil, err
	}

	s.auditLog.Log(ctx, audit.ResourceEvent(ctx, audit.ActionUserCreated, "user", u.ID,
		map[string]any{audit.MetadataRoles: role.Strings(u.Roles)}).ForTenant(u.TenantID))
	return u, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, requested scope.UserFilter) ([]User, error) {
	f, err := s.resolver.Users(p, requested)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.AssertCanView(p, u.Ownership()); err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

func callerRoles(p *auth.Principal) []role.Role {
	if p == nil {
		return nil
	}
	return p.Roles
}

// tenantBound reports whether roles include one that only means something
// inside a tenant.
func tenantBound(roles []role.Role) bool {
	for _, r := range roles {
		if r == role.Owner || r == role.Staff {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

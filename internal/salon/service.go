package salon

import (
	"context"
	"errors"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/scope"
)

// Service applies tenant scoping to salon reads and writes.
type Service struct {
	repo     Repository
	resolver *scope.Resolver
	auditLog audit.Logger
}

func NewService(repo Repository, resolver *scope.Resolver, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{repo: repo, resolver: resolver, auditLog: auditLog}
}

// CreateInput is a new salon. TenantID is honoured only for platform
// admins; owners always create inside their own tenant.
type CreateInput struct {
	TenantID string
	Name     string
	Address  string
	Phone    string
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, in CreateInput) (*Salon, error) {
	switch s.resolver.Level(p) {
	case scope.LevelPlatform:
		if in.TenantID == "" {
			return nil, ErrTenantRequired
		}
	case scope.LevelTenant:
		in.TenantID = p.TenantID
	default:
		return nil, scope.ErrNoVisibility
	}

	created, err := s.repo.Create(ctx, &Salon{
		TenantID: in.TenantID,
		Name:     in.Name,
		Address:  in.Address,
		Phone:    in.Phone,
		Active:   true,
	})
	if err != nil {
		return nil, err
	}

	s.auditLog.Log(ctx, audit.ResourceEvent(ctx, audit.ActionSalonCreated, "salon", created.ID,
		map[string]any{"name": created.Name}).ForTenant(created.TenantID))
	return created, nil
}

// List returns the salons p may see. Staff and owners see every salon of
// their tenant; everyone else sees the active ones.
func (s *Service) List(ctx context.Context, p *auth.Principal, requested scope.SalonFilter) ([]Salon, error) {
	f, err := s.resolver.Salons(p, requested)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*Salon, error) {
	salon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.AssertCanView(p, salon.Ownership()); err != nil {
		return nil, hide(err)
	}
	return salon, nil
}

// UpdateInput holds the fields to change. Nil fields are left as they are.
type UpdateInput struct {
	Name    *string
	Address *string
	Phone   *string
	Active  *bool
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id string, in UpdateInput) (*Salon, error) {
	salon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.AssertCanMutate(p, salon.Ownership()); err != nil {
		return nil, hide(err)
	}

	changed := *salon
	if in.Name != nil {
		changed.Name = *in.Name
	}
	if in.Address != nil {
		changed.Address = *in.Address
	}
	if in.Phone != nil {
		changed.Phone = *in.Phone
	}
	if in.Active != nil {
		changed.Active = *in.Active
	}

	updated, err := s.repo.Update(ctx, &changed)
	if err != nil {
		return nil, err
	}

	s.auditLog.Log(ctx, audit.ResourceEvent(ctx, audit.ActionSalonUpdated, "salon", updated.ID,
		map[string]any{"active": updated.Active}).ForTenant(updated.TenantID))
	return updated, nil
}

// hide reports out-of-scope salons exactly like absent ones.
func hide(err error) error {
	if errors.Is(err, scope.ErrNotFound) {
		return ErrSalonNotFound
	}
	return err
}

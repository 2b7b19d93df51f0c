package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/salon"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/glowbook/glowbook/internal/user"
)

// SalonLookup fetches salons. salon.Repository satisfies it.
type SalonLookup interface {
	GetByID(ctx context.Context, id string) (*salon.Salon, error)
}

// UserLookup fetches accounts. user.Repository satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Service enforces who may book, view and change appointments.
type Service struct {
	repo      Repository
	salons    SalonLookup
	users     UserLookup
	hierarchy *role.Hierarchy
	resolver  *scope.Resolver
	auditLog  audit.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, salons SalonLookup, users UserLookup, h *role.Hierarchy, auditLog audit.Logger, opts ...Option) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	s := &Service{
		repo:      repo,
		salons:    salons,
		users:     users,
		hierarchy: h,
		resolver:  scope.NewResolver(h),
		auditLog:  auditLog,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookInput is a booking request. CustomerID is ignored for customers,
// who always book for themselves, and StaffID is ignored for staff, who
// only take bookings for themselves.
type BookInput struct {
	SalonID    string
	StaffID    string
	CustomerID string
	Service    string
	Notes      string
	StartsAt   time.Time
	EndsAt     time.Time
}

func (s *Service) Book(ctx context.Context, p *auth.Principal, in BookInput) (*Appointment, error) {
	level := s.resolver.Level(p)
	if level == scope.LevelNone {
		return nil, scope.ErrNoVisibility
	}
	if err := s.checkWindow(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}

	sl, err := s.salons.GetByID(ctx, in.SalonID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.AssertCanView(p, sl.Ownership()); err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, salon.ErrSalonNotFound
		}
		return nil, err
	}
	if !sl.Active {
		return nil, ErrSalonInactive
	}

	switch level {
	case scope.LevelTenant:
		if sl.TenantID != p.TenantID {
			return nil, ErrOutsideTenant
		}
	case scope.LevelAssigned:
		if sl.TenantID != p.TenantID {
			return nil, ErrOutsideTenant
		}
		in.StaffID = p.UserID
	case scope.LevelSelf:
		if !p.PlatformLevel() && sl.TenantID != p.TenantID {
			return nil, ErrOutsideTenant
		}
		in.CustomerID = p.UserID
	}

	if err := s.checkStaff(ctx, in.StaffID, sl.TenantID); err != nil {
		return nil, err
	}
	if level != scope.LevelSelf {
		if err := s.checkCustomer(ctx, in.CustomerID, sl.TenantID); err != nil {
			return nil, err
		}
	}

	a, err := s.repo.Book(ctx, &Appointment{
		TenantID:   sl.TenantID,
		SalonID:    sl.ID,
		CustomerID: in.CustomerID,
		StaffID:    in.StaffID,
		Service:    in.Service,
		Notes:      in.Notes,
		StartsAt:   in.StartsAt.UTC(),
		EndsAt:     in.EndsAt.UTC(),
		Status:     StatusBooked,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.ActionAppointmentBooked, a, map[string]any{
		"salon_id": a.SalonID,
		"staff_id": a.StaffID,
	})
	return a, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, requested scope.AppointmentFilter) ([]Appointment, error) {
	f, err := s.resolver.Appointments(p, requested)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.AssertCanView(p, a.Ownership()); err != nil {
		return nil, hide(err)
	}
	return a, nil
}

// Reschedule moves an open appointment to a new window with the same
// staff member.
func (s *Service) Reschedule(ctx context.Context, p *auth.Principal, id string, startsAt, endsAt time.Time) (*Appointment, error) {
	a, err := s.mutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !a.Open() {
		return nil, ErrInvalidTransition
	}
	if err := s.checkWindow(startsAt, endsAt); err != nil {
		return nil, err
	}

	updated, err := s.repo.Reschedule(ctx, id, startsAt.UTC(), endsAt.UTC())
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionAppointmentRescheduled, updated, map[string]any{
		"previous_starts_at": a.StartsAt,
		"starts_at":          updated.StartsAt,
	})
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, p *auth.Principal, id string) (*Appointment, error) {
	return s.transition(ctx, p, id, StatusCancelled, audit.ActionAppointmentCancelled)
}

func (s *Service) Confirm(ctx context.Context, p *auth.Principal, id string) (*Appointment, error) {
	return s.transition(ctx, p, id, StatusConfirmed, audit.ActionAppointmentConfirmed)
}

func (s *Service) Complete(ctx context.Context, p *auth.Principal, id string) (*Appointment, error) {
	return s.transition(ctx, p, id, StatusCompleted, audit.ActionAppointmentCompleted)
}

func (s *Service) transition(ctx context.Context, p *auth.Principal, id, to, action string) (*Appointment, error) {
	a, err := s.mutable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.SetStatus(ctx, id, a.Status, to)
	if err != nil {
		return nil, err
	}
	s.record(ctx, action, updated, map[string]any{"from": a.Status, "to": to})
	return updated, nil
}

// mutable fetches an appointment p may change.
func (s *Service) mutable(ctx context.Context, p *auth.Principal, id string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.AssertCanMutate(p, a.Ownership()); err != nil {
		return nil, hide(err)
	}
	return a, nil
}

func (s *Service) checkWindow(startsAt, endsAt time.Time) error {
	switch {
	case startsAt.IsZero() || endsAt.IsZero():
		return ErrInvalidTime
	case !endsAt.After(startsAt):
		return ErrInvalidTime
	case endsAt.Sub(startsAt) > MaxDuration:
		return ErrInvalidTime
	case startsAt.Before(s.now()):
		return ErrInvalidTime
	}
	return nil
}

// checkStaff verifies that staffID is an account holding the staff role
// in tenantID.
func (s *Service) checkStaff(ctx context.Context, staffID, tenantID string) error {
	if staffID == "" {
		return ErrInvalidStaff
	}
	u, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrInvalidStaff
		}
		return err
	}
	if u.TenantID != tenantID || u.Status != "active" {
		return ErrInvalidStaff
	}
	if _, ok := s.hierarchy.Effective(u.Roles)[role.Staff]; !ok {
		return ErrInvalidStaff
	}
	return nil
}

// checkCustomer verifies that customerID is an active customer account that
// can see bookings in tenantID. Accounts above CUSTOMER would not see the
// booking as theirs, so they are rejected.
func (s *Service) checkCustomer(ctx context.Context, customerID, tenantID string) error {
	if customerID == "" {
		return ErrInvalidCustomer
	}
	u, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrInvalidCustomer
		}
		return err
	}
	if u.Status != "active" {
		return ErrInvalidCustomer
	}
	if u.TenantID != "" && u.TenantID != tenantID {
		return ErrInvalidCustomer
	}
	if top, ok := s.hierarchy.Highest(u.Roles); !ok || top != role.Customer {
		return ErrInvalidCustomer
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, a *Appointment, metadata map[string]any) {
	s.auditLog.Log(ctx, audit.ResourceEvent(ctx, action, "appointment", a.ID, metadata).ForTenant(a.TenantID))
}

func hide(err error) error {
	if errors.Is(err, scope.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	return err
}

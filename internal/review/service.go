package review

import (
	"context"
	"errors"

	"github.com/glowbook/glowbook/internal/appointment"
	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/scope"
)

// AppointmentLookup fetches appointments. appointment.Repository satisfies it.
type AppointmentLookup interface {
	GetByID(ctx context.Context, id string) (*appointment.Appointment, error)
}

type Service struct {
	repo         Repository
	appointments AppointmentLookup
	resolver     *scope.Resolver
	auditLog     audit.Logger
}

func NewService(repo Repository, appointments AppointmentLookup, resolver *scope.Resolver, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{repo: repo, appointments: appointments, resolver: resolver, auditLog: auditLog}
}

type CreateInput struct {
	AppointmentID string
	Rating        int
	Comment       string
}

// Create records p's review of one of p's own completed appointments.
// Appointments of anyone else are reported as not found, whatever p's role.
func (s *Service) Create(ctx context.Context, p *auth.Principal, in CreateInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if p == nil {
		return nil, appointment.ErrAppointmentNotFound
	}

	a, err := s.appointments.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if a.CustomerID != p.UserID {
		return nil, appointment.ErrAppointmentNotFound
	}
	if a.Status != appointment.StatusCompleted {
		return nil, ErrNotCompleted
	}

	r, err := s.repo.Create(ctx, &Review{
		TenantID:      a.TenantID,
		SalonID:       a.SalonID,
		AppointmentID: a.ID,
		CustomerID:    p.UserID,
		Rating:        in.Rating,
		Comment:       in.Comment,
	})
	if err != nil {
		return nil, err
	}

	s.auditLog.Log(ctx, audit.ResourceEvent(ctx, audit.ActionReviewCreated, "review", r.ID,
		map[string]any{"rating": r.Rating, "salon_id": r.SalonID}).ForTenant(r.TenantID))
	return r, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, requested scope.ReviewFilter) ([]Review, error) {
	f, err := s.resolver.Reviews(p, requested)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id string) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resolver.AssertCanMutate(p, r.Ownership()); err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditLog.Log(ctx, audit.ResourceEvent(ctx, audit.ActionReviewDeleted, "review", r.ID,
		map[string]any{"appointment_id": r.AppointmentID}).ForTenant(r.TenantID))
	return nil
}

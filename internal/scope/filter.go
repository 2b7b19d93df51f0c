package scope

import (
	"time"

	"github.com/glowbook/glowbook/internal/auth"
)

// AppointmentFilter selects appointments. Empty fields do not constrain.
type AppointmentFilter struct {
	TenantID   string
	SalonID    string
	CustomerID string
	StaffID    string
	Status     string
	From       time.Time
	To         time.Time
	Limit      int
}

// Appointments returns the effective filter for p. Staff are narrowed to
// their own assignments; customers to their own bookings.
func (s *Resolver) Appointments(p *auth.Principal, requested AppointmentFilter) (AppointmentFilter, error) {
	f := requested
	switch s.Level(p) {
	case LevelPlatform:
	case LevelTenant:
		f.TenantID = p.TenantID
	case LevelAssigned:
		f.TenantID = p.TenantID
		f.StaffID = p.UserID
	case LevelSelf:
		f.CustomerID = p.UserID
		f.TenantID = p.TenantID
	default:
		return AppointmentFilter{}, ErrNoVisibility
	}
	return f, nil
}

// UserFilter selects user accounts.
type UserFilter struct {
	TenantID string
	ID       string
	Role     string
	Limit    int
}

// Users returns the effective filter for p. Customers only ever see
// themselves.
func (s *Resolver) Users(p *auth.Principal, requested UserFilter) (UserFilter, error) {
	f := requested
	switch s.Level(p) {
	case LevelPlatform:
	case LevelTenant, LevelAssigned:
		f.TenantID = p.TenantID
	case LevelSelf:
		f.ID = p.UserID
		f.TenantID = p.TenantID
	default:
		return UserFilter{}, ErrNoVisibility
	}
	return f, nil
}

// SalonFilter selects salons.
type SalonFilter struct {
	TenantID   string
	ActiveOnly bool
	Limit      int
}

// Salons returns the effective filter for p. Salons are a public listing:
// callers outside a tenant see active salons of every tenant.
func (s *Resolver) Salons(p *auth.Principal, requested SalonFilter) (SalonFilter, error) {
	f := requested
	switch s.Level(p) {
	case LevelPlatform:
	case LevelTenant, LevelAssigned:
		f.TenantID = p.TenantID
	default:
		f.ActiveOnly = true
	}
	return f, nil
}

// ReviewFilter selects reviews.
type ReviewFilter struct {
	TenantID   string
	SalonID    string
	CustomerID string
	Limit      int
}

// Reviews returns the effective filter for p.
func (s *Resolver) Reviews(p *auth.Principal, requested ReviewFilter) (ReviewFilter, error) {
	f := requested
	switch s.Level(p) {
	case LevelPlatform:
	case LevelTenant, LevelAssigned:
		f.TenantID = p.TenantID
	case LevelSelf:
		f.CustomerID = p.UserID
		f.TenantID = p.TenantID
	default:
		return ReviewFilter{}, ErrNoVisibility
	}
	return f, nil
}

// AuditFilter selects audit events.
type AuditFilter struct {
	TenantID string
}

// Audit returns the effective filter for p. Only platform and tenant
// levels see the audit trail.
func (s *Resolver) Audit(p *auth.Principal, requested AuditFilter) (AuditFilter, error) {
	f := requested
	switch s.Level(p) {
	case LevelPlatform:
	case LevelTenant:
		f.TenantID = p.TenantID
	default:
		return AuditFilter{}, ErrNoVisibility
	}
	return f, nil
}

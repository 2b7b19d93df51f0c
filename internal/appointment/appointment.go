// Package appointment books and manages salon appointments.
package appointment

import (
	"context"
	"time"

	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
)

const (
	StatusBooked    = "booked"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// MaxDuration bounds a single appointment.
const MaxDuration = 8 * time.Hour

var (
	ErrAppointmentNotFound = httpx.NewError(httpx.ErrNotFound, "appointment_not_found", "appointment not found")
	ErrSlotTaken           = httpx.NewError(httpx.ErrConflict, "slot_taken", "staff member already has an appointment in this time slot")
	ErrInvalidTransition   = httpx.NewError(httpx.ErrConflict, "invalid_transition", "appointment status does not allow this change")
	ErrInvalidTime         = httpx.NewError(httpx.ErrValidation, "invalid_time", "invalid appointment time window")
	ErrSalonInactive       = httpx.NewError(httpx.ErrConflict, "salon_inactive", "salon is not taking bookings")
	ErrOutsideTenant       = httpx.NewError(httpx.ErrForbidden, "outside_tenant", "salon belongs to another tenant")
	ErrInvalidStaff        = httpx.NewError(httpx.ErrValidation, "invalid_staff", "staff member does not work for this salon")
	ErrInvalidCustomer     = httpx.NewError(httpx.ErrValidation, "invalid_customer", "customer_id must name an existing account")
	ErrInvalidFilter       = httpx.NewError(httpx.ErrValidation, "invalid_filter", "invalid appointment filter")
)

// Appointment is a booked service slot with one staff member.
type Appointment struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	SalonID    string    `json:"salon_id"`
	CustomerID string    `json:"customer_id"`
	StaffID    string    `json:"staff_id"`
	Service    string    `json:"service"`
	Notes      string    `json:"notes"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Appointment) Ownership() scope.Ownership {
	return scope.Ownership{TenantID: a.TenantID, CustomerID: a.CustomerID, StaffID: a.StaffID}
}

// Open reports whether the appointment still holds its slot.
func (a *Appointment) Open() bool {
	return a.Status == StatusBooked || a.Status == StatusConfirmed
}

var transitions = map[string][]string{
	StatusBooked:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Repository is the persistence contract of the appointment service.
// Book and Reschedule must reject a window overlapping another open
// appointment of the same staff member with ErrSlotTaken, atomically with
// the write.
type Repository interface {
	Book(ctx context.Context, a *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, f scope.AppointmentFilter) ([]Appointment, error)
	Reschedule(ctx context.Context, id string, startsAt, endsAt time.Time) (*Appointment, error)
	// SetStatus moves the appointment from one status to another and fails
	// with ErrInvalidTransition when it is no longer in from.
	SetStatus(ctx context.Context, id, from, to string) (*Appointment, error)
}

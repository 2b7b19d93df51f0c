// Package review lets customers rate appointments they attended.
package review

import (
	"context"
	"time"

	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
)

var (
	ErrReviewNotFound  = httpx.NewError(httpx.ErrNotFound, "review_not_found", "review not found")
	ErrAlreadyReviewed = httpx.NewError(httpx.ErrConflict, "already_reviewed", "appointment already has a review")
	ErrNotCompleted    = httpx.NewError(httpx.ErrConflict, "appointment_not_completed", "only completed appointments can be reviewed")
	ErrInvalidRating   = httpx.NewError(httpx.ErrValidation, "invalid_rating", "rating must be between 1 and 5")
	ErrInvalidFilter   = httpx.NewError(httpx.ErrValidation, "invalid_filter", "invalid review filter")
)

// Review is a customer's rating of one completed appointment.
type Review struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	SalonID       string    `json:"salon_id"`
	AppointmentID string    `json:"appointment_id"`
	CustomerID    string    `json:"customer_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// Ownership returns the scoping fields of r. Staff may read their
// tenant's reviews but only the author, the tenant's owners and platform
// admins may delete one.
func (r *Review) Ownership() scope.Ownership {
	return scope.Ownership{TenantID: r.TenantID, CustomerID: r.CustomerID, TenantWide: true}
}

// Repository is the persistence contract of the review service.
type Repository interface {
	Create(ctx context.Context, r *Review) (*Review, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context, f scope.ReviewFilter) ([]Review, error)
	Delete(ctx context.Context, id string) error
}

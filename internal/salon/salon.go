// Package salon manages the salons a tenant operates.
package salon

import (
	"context"
	"time"

	"github.com/glowbook/glowbook/internal/platform/httpx"
	"github.com/glowbook/glowbook/internal/scope"
)

var (
	ErrSalonNotFound  = httpx.NewError(httpx.ErrNotFound, "salon_not_found", "salon not found")
	ErrTenantRequired = httpx.NewError(httpx.ErrValidation, "tenant_required", "tenant_id is required")
	ErrInvalidFilter  = httpx.NewError(httpx.ErrValidation, "invalid_filter", "invalid salon filter")
)

// Salon is a physical location of a tenant where appointments take place.
type Salon struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ownership returns the scoping fields of s. Active salons are publicly
// listed; staff may view but not change them.
func (s *Salon) Ownership() scope.Ownership {
	return scope.Ownership{TenantID: s.TenantID, TenantWide: true, Public: s.Active}
}

// Repository is the persistence contract of the salon service.
type Repository interface {
	Create(ctx context.Context, s *Salon) (*Salon, error)
	GetByID(ctx context.Context, id string) (*Salon, error)
	List(ctx context.Context, f scope.SalonFilter) ([]Salon, error)
	Update(ctx context.Context, s *Salon) (*Salon, error)
}

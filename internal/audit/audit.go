package audit

import (
	"context"

	"github.com/glowbook/glowbook/internal/auth"
	"github.com/google/uuid"
)

// Event represents a single auditable action in the system.
type Event struct {
	TenantID     *uuid.UUID // nil for platform-level actors
	UserID       *uuid.UUID // nil for system events
	Action       string     // e.g. "appointment.booked", "access.denied"
	ResourceType string     // e.g. "appointment", "salon", "user"
	ResourceID   *uuid.UUID
	Metadata     map[string]any
	Source       string // "api", "system"
}

const (
	ActionAccessDenied = "access.denied"

	ActionTenantCreated = "tenant.created"

	ActionSalonCreated = "salon.created"
	ActionSalonUpdated = "salon.updated"

	ActionUserCreated    = "user.created"
	ActionUserRegistered = "user.registered"

	ActionAppointmentBooked      = "appointment.booked"
	ActionAppointmentRescheduled = "appointment.rescheduled"
	ActionAppointmentCancelled   = "appointment.cancelled"
	ActionAppointmentConfirmed   = "appointment.confirmed"
	ActionAppointmentCompleted   = "appointment.completed"

	ActionReviewCreated = "review.created"
	ActionReviewDeleted = "review.deleted"
)

const (
	MetadataOperation = "operation"
	MetadataReason    = "reason"
	MetadataRoles     = "roles"
	MetadataRequestID = "request_id"
)

// Logger is the audit logging interface. Log is fire-and-forget.
type Logger interface {
	Log(ctx context.Context, event Event)
	Close() error
}

// NopLogger is a no-op audit logger for testing and when audit is disabled.
type NopLogger struct{}

func (NopLogger) Log(context.Context, Event) {}
func (NopLogger) Close() error               { return nil }

// ActorIDFromContext extracts the authenticated user's UUID from the
// request context, returning nil if no principal is present or the
// user ID is not a valid UUID.
func ActorIDFromContext(ctx context.Context) *uuid.UUID {
	return parseID(userIDOf(auth.GetPrincipal(ctx)))
}

// TenantIDFromContext extracts the principal's tenant UUID, or nil for
// platform-level principals.
func TenantIDFromContext(ctx context.Context) *uuid.UUID {
	p := auth.GetPrincipal(ctx)
	if p == nil {
		return nil
	}
	return parseID(p.TenantID)
}

// ResourceEvent builds an api-sourced event attributed to the caller in ctx.
func ResourceEvent(ctx context.Context, action, resourceType, resourceID string, metadata map[string]any) Event {
	return Event{
		TenantID:     TenantIDFromContext(ctx),
		UserID:       ActorIDFromContext(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   parseID(resourceID),
		Metadata:     metadata,
		Source:       "api",
	}
}

// ForTenant attributes the event to tenantID instead of the actor's own
// tenant. Platform admins acting inside a tenant are recorded there so the
// tenant's owners see the action in their trail.
func (e Event) ForTenant(tenantID string) Event {
	if id := parseID(tenantID); id != nil {
		e.TenantID = id
	}
	return e
}

func userIDOf(p *auth.Principal) string {
	if p == nil {
		return ""
	}
	return p.UserID
}

func parseID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

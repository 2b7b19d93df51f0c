package scope

import "github.com/glowbook/glowbook/internal/auth"

// Ownership carries the scoping fields of a fetched record.
type Ownership struct {
	TenantID   string
	CustomerID string
	StaffID    string
	// TenantWide marks records that belong to the tenant as a whole, such
	// as salons and staff accounts, rather than to one staff member.
	TenantWide bool
	// Public marks records anyone may view, such as an active salon.
	Public bool
}

// AssertCanView checks single-record read access. Records in another
// tenant, or another customer's records, are reported as ErrNotFound so
// that their existence is not disclosed.
func (s *Resolver) AssertCanView(p *auth.Principal, o Ownership) error {
	return s.assert(p, o, false)
}

// AssertCanMutate checks write access to a fetched record. It follows
// AssertCanView except that staff may not change tenant-wide records and
// public visibility grants nothing.
func (s *Resolver) AssertCanMutate(p *auth.Principal, o Ownership) error {
	return s.assert(p, o, true)
}

func (s *Resolver) assert(p *auth.Principal, o Ownership, mutate bool) error {
	if !mutate && o.Public {
		return nil
	}

	switch s.Level(p) {
	case LevelPlatform:
		return nil
	case LevelTenant:
		if o.TenantID != "" && o.TenantID == p.TenantID {
			return nil
		}
		return ErrNotFound
	case LevelAssigned:
		if o.TenantID == "" || o.TenantID != p.TenantID {
			return ErrNotFound
		}
		if o.StaffID != "" && o.StaffID == p.UserID {
			return nil
		}
		if o.TenantWide && !mutate {
			return nil
		}
		return ErrForbidden
	case LevelSelf:
		// A tenant-bound customer is confined to its tenant, as in the
		// list filters.
		if !p.PlatformLevel() && o.TenantID != p.TenantID {
			return ErrNotFound
		}
		if o.CustomerID != "" && o.CustomerID == p.UserID {
			return nil
		}
		return ErrNotFound
	default:
		return ErrNotFound
	}
}

package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/glowbook/glowbook/internal/platform/httpx"
)

var (
	ErrTenantNotFound = httpx.NewError(httpx.ErrNotFound, "tenant_not_found", "tenant not found")
	ErrSlugTaken      = httpx.NewError(httpx.ErrConflict, "slug_taken", "tenant slug already in use")
	ErrInvalidSlug    = httpx.NewError(httpx.ErrValidation, "invalid_slug", "invalid tenant slug")
)

// Tenant is a beauty business. It owns salons, staff and appointments.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)
	nonSlugRun  = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugs that collide with public hostnames or booking paths.
var reservedSlugs = map[string]struct{}{
	"api": {}, "app": {}, "www": {}, "admin": {}, "auth": {},
	"static": {}, "assets": {}, "book": {}, "booking": {}, "partner": {},
}

// ValidateSlug checks that a slug is a DNS label and not reserved.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: must be 3-63 lowercase letters, digits or hyphens, not starting or ending with a hyphen", ErrInvalidSlug)
	}
	if _, ok := reservedSlugs[slug]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSlug, slug)
	}
	return nil
}

// SlugFromName derives a slug candidate from a business name, e.g.
// "Rose & Co. Beauty" becomes "rose-co-beauty". The result still has to
// pass ValidateSlug.
func SlugFromName(name string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 63 {
		s = strings.TrimRight(s[:63], "-")
	}
	return s
}

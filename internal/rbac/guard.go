package rbac

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/glowbook/glowbook/internal/role"
)

// Guard evaluates role requirements against held roles expanded through
// the hierarchy. It holds no mutable state and is safe for concurrent use.
type Guard struct {
	hierarchy *role.Hierarchy
	logger    *slog.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLogger sets the logger used for configuration defects.
func WithLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = l
	}
}

func NewGuard(h *role.Hierarchy, opts ...GuardOption) *Guard {
	g := &Guard{hierarchy: h, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns nil when required is empty or when the expansion of held
// intersects required. A required role the hierarchy does not know denies.
func (g *Guard) Check(required, held []role.Role) error {
	if len(required) == 0 {
		return nil
	}

	for _, r := range required {
		if !g.hierarchy.Known(r) {
			g.logger.Error("unknown role in route requirement, denying",
				"role", string(r),
				"required", role.Strings(required),
			)
			return fmt.Errorf("%w: unknown role %q", ErrMisconfigured, r)
		}
	}

	effective := g.hierarchy.Effective(held)
	for _, r := range required {
		if _, ok := effective[r]; ok {
			return nil
		}
	}

	return &ForbiddenError{Accepted: slices.Clone(required)}
}


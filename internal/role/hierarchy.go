package role

import (
	"errors"
	"fmt"
)

var ErrHierarchyCycle = errors.New("role hierarchy contains a cycle")

// Hierarchy maps each role to the set of roles it covers, itself included.
// It is built once and never mutated, so concurrent readers need no locking.
type Hierarchy struct {
	closure map[Role]map[Role]struct{}
}

// DefaultEdges is the direct subsumption relation used by the platform:
// ADMIN covers OWNER, OWNER covers STAFF, STAFF covers CUSTOMER.
// CUSTOMER and GUEST cover nothing.
func DefaultEdges() map[Role][]Role {
	return map[Role][]Role{
		Admin: {Owner},
		Owner: {Staff},
		Staff: {Customer},
	}
}

// Default returns the hierarchy built from DefaultEdges.
func Default() *Hierarchy {
	h, err := NewHierarchy(DefaultEdges())
	if err != nil {
		panic(fmt.Sprintf("default role hierarchy: %v", err))
	}
	return h
}

// NewHierarchy validates edges as a strict partial order over the closed
// role set and precomputes the reflexive-transitive closure.
func NewHierarchy(edges map[Role][]Role) (*Hierarchy, error) {
	for parent, children := range edges {
		if !parent.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, parent)
		}
		for _, c := range children {
			if !c.Valid() {
				return nil, fmt.Errorf("%w: %q (child of %s)", ErrUnknownRole, c, parent)
			}
		}
	}

	h := &Hierarchy{closure: make(map[Role]map[Role]struct{}, len(All()))}
	for _, r := range All() {
		set := map[Role]struct{}{r: {}}
		if err := collect(edges, r, set, map[Role]bool{r: true}); err != nil {
			return nil, err
		}
		h.closure[r] = set
	}
	return h, nil
}

// collect walks edges depth-first from r. path holds the roles on the
// current walk; meeting one again means a cycle.
func collect(edges map[Role][]Role, r Role, set map[Role]struct{}, path map[Role]bool) error {
	for _, c := range edges[r] {
		if path[c] {
			return fmt.Errorf("%w: %s -> %s", ErrHierarchyCycle, r, c)
		}
		set[c] = struct{}{}
		path[c] = true
		if err := collect(edges, c, set, path); err != nil {
			return err
		}
		delete(path, c)
	}
	return nil
}

// Expand returns every role r covers, r included, in descending privilege
// order. An unknown role expands to nothing.
func (h *Hierarchy) Expand(r Role) []Role {
	set, ok := h.closure[r]
	if !ok {
		return nil
	}
	out := make([]Role, 0, len(set))
	for _, candidate := range All() {
		if _, ok := set[candidate]; ok {
			out = append(out, candidate)
		}
	}
	return out
}

// Subsumes reports whether holder covers target.
func (h *Hierarchy) Subsumes(holder, target Role) bool {
	_, ok := h.closure[holder][target]
	return ok
}

// Known reports whether r has an entry in the table.
func (h *Hierarchy) Known(r Role) bool {
	_, ok := h.closure[r]
	return ok
}

// Effective returns the union of Expand over held.
func (h *Hierarchy) Effective(held []Role) map[Role]struct{} {
	out := make(map[Role]struct{})
	for _, r := range held {
		for c := range h.closure[r] {
			out[c] = struct{}{}
		}
	}
	return out
}

// Highest returns the most privileged role in held according to All's
// ordering, and false when held contains no known role.
func (h *Hierarchy) Highest(held []Role) (Role, bool) {
	eff := h.Effective(held)
	for _, r := range All() {
		if _, ok := eff[r]; ok {
			return r, true
		}
	}
	return "", false
}

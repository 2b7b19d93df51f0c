// Package role defines the closed set of platform roles and the hierarchy
// that expands a held role into every role it covers.
package role

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is one of the fixed platform roles.
type Role string

const (
	Admin    Role = "ADMIN"
	Owner    Role = "OWNER"
	Staff    Role = "STAFF"
	Customer Role = "CUSTOMER"
	Guest    Role = "GUEST"
)

// All returns every role in descending order of privilege.
func All() []Role {
	return []Role{Admin, Owner, Staff, Customer, Guest}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case Admin, Owner, Staff, Customer, Guest:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Parse converts a role name into a Role. Matching is case-insensitive.
func Parse(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// ParseAll parses every name and fails on the first unknown one.
func ParseAll(names []string) ([]Role, error) {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		r, err := Parse(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// Strings returns the role names, preserving order.
func Strings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Package auth authenticates administrators and decides what a caller may do.
//
// Every request carries a Principal in its context. Anonymous visitors get the
// zero Principal; signed-in staff get one built from their Redis session.
// Permission checks go through a single Policy table instead of per-handler
// role comparisons.
package auth

import (
	"context"
	"fmt"
)

// Role is the staff role of an administrator account.
type Role string

const (
	RoleAnonymous  Role = ""
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleAnonymous:  0,
	RoleEditor:     1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole converts a stored role name into a Role. Only staff roles are accepted.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r == RoleAnonymous {
		return "", fmt.Errorf("unknown role %q", s)
	}
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// AtLeast reports whether r ranks at or above minRole.
func (r Role) AtLeast(minRole Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[minRole]
}

// Principal is the caller of a request.
type Principal struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	SessionID string `json:"-"`
}

// Authenticated reports whether the principal belongs to a signed-in administrator.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// Actor names the principal in audit columns such as updated_by.
func (p Principal) Actor() string {
	if p.Email != "" {
		return p.Email
	}
	if p.UserID != "" {
		return p.UserID
	}
	return "system"
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or the anonymous principal.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

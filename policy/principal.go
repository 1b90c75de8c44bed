// Package policy decides whether a caller may create or read submissions
// and reviews, based on their platform roles, their resource roles on the
// challenge and the challenge's phase state.
package policy

import (
	"slices"
	"strings"
)

// Platform roles.
const (
	RoleAdministrator = "Administrator"
	RoleTopcoderUser  = "Topcoder User"
	RoleCopilot       = "Copilot"
)

// Kind tells how a principal authenticated.
type Kind int

const (
	// KindHuman is a member token carrying platform roles.
	KindHuman Kind = iota
	// KindMachine is a client-credentials token without usable scopes.
	KindMachine
	// KindScopedService is a client-credentials token carrying scopes.
	KindScopedService
)

func (k Kind) String() string {
	switch k {
	case KindMachine:
		return "machine"
	case KindScopedService:
		return "scoped-service"
	default:
		return "human"
	}
}

// Principal is the authenticated caller. It is built once per request and
// never mutated.
type Principal struct {
	Kind   Kind
	UserID string
	Handle string
	Roles  []string
	Scopes []string
}

// Human returns a member principal.
func Human(userID, handle string, roles ...string) Principal {
	return Principal{Kind: KindHuman, UserID: userID, Handle: handle, Roles: roles}
}

// Service returns a machine principal. Scopes make it a scoped service.
func Service(scopes ...string) Principal {
	if len(scopes) == 0 {
		return Principal{Kind: KindMachine}
	}
	return Principal{Kind: KindScopedService, Scopes: scopes}
}

// HasRole reports whether the principal holds a platform role. Role names
// compare case-insensitively.
func (p Principal) HasRole(name string) bool {
	return slices.ContainsFunc(p.Roles, func(r string) bool {
		return strings.EqualFold(r, name)
	})
}

// HasAnyRole reports whether the principal holds any of names.
func (p Principal) HasAnyRole(names ...string) bool {
	return slices.ContainsFunc(names, p.HasRole)
}

// HasAnyScope reports whether the principal carries any of names.
func (p Principal) HasAnyScope(names ...string) bool {
	for _, s := range p.Scopes {
		if slices.Contains(names, s) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal is a human administrator.
func (p Principal) IsAdmin() bool {
	return p.Kind == KindHuman && p.HasRole(RoleAdministrator)
}

// Privileged reports whether the principal bypasses the member access
// rules: administrators and machine callers.
func (p Principal) Privileged() bool {
	return p.Kind != KindHuman || p.IsAdmin()
}

// Actor names the principal in audit fields.
func (p Principal) Actor() string {
	switch {
	case p.Kind != KindHuman:
		return "machine"
	case p.Handle != "":
		return p.Handle
	default:
		return p.UserID
	}
}

// Package auth holds the capability checks backing every Forbidden
// decision. Identity itself is issued by an external provider; the
// server trusts the actor address it forwards.
package auth

import (
	"strings"
)

// Role is an opaque capability name.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Authorizer answers capability checks for an actor address.
type Authorizer interface {
	HasRole(actor string, role Role) bool
}

// Registry is a config-backed Authorizer: the admin capability is held
// by a fixed set of addresses, everyone else is a plain user.
type Registry struct {
	admins map[string]struct{}
}

// NewRegistry builds a Registry from the configured admin address list.
// Addresses compare case-insensitively.
func NewRegistry(admins []string) *Registry {
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		set[strings.ToLower(a)] = struct{}{}
	}
	return &Registry{admins: set}
}

func (r *Registry) HasRole(actor string, role Role) bool {
	if actor == "" {
		return false
	}
	switch role {
	case RoleAdmin:
		_, ok := r.admins[strings.ToLower(actor)]
		return ok
	case RoleUser:
		return true
	default:
		return false
	}
}

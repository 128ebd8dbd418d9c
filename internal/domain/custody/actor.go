package custody

import (
	"strings"

	"github.com/notaria/backend/internal/domain/shared"
)

// Role is the office role an actor holds. Authentication happens upstream;
// the core only asks whether a role is elevated.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleNotary     Role = "NOTARY"
	RoleHandler    Role = "HANDLER"
	RoleCashier    Role = "CASHIER"
	RoleReception  Role = "RECEPTION"
	RoleSupervisor Role = "SUPERVISOR"
)

// ParseRole normalizes a header or claim value into a Role
func ParseRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// IsValid reports whether r is one of the office roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleNotary, RoleHandler, RoleCashier, RoleReception, RoleSupervisor:
		return true
	}
	return false
}

// IsElevated reports whether the role may eliminate documents, reverse payments
// and override delivery verification
func (r Role) IsElevated() bool {
	switch r {
	case RoleAdmin, RoleNotary, RoleSupervisor:
		return true
	}
	return false
}

// Actor is whoever triggers a mutation
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsElevated reports whether the actor holds an elevated role
func (a Actor) IsElevated() bool {
	return a.Role.IsElevated()
}

// Validate checks that the actor is identified
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return shared.NewValidationError("actor id is required")
	}
	return nil
}

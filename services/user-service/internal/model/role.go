package model

import "errors"

// Role is the set of platform roles an identity can hold. The role claim on
// an identity is the authoritative value for authorization decisions.
type Role string

const (
	// RoleUser is the default role for identities without an explicit claim.
	RoleUser Role = "user"

	// RoleInstructor grants course authoring privileges.
	RoleInstructor Role = "instructor"

	// RoleAdmin grants user management privileges.
	RoleAdmin Role = "admin"
)

// ErrInvalidRole is returned when a raw role string is not a known role.
var ErrInvalidRole = errors.New("role must be one of: user, instructor, admin")

// ParseRole validates a raw role string and returns the typed role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleInstructor, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

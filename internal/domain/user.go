package domain

import "errors"

// User represents an authenticated caller identity. Authentication itself is
// an external collaborator; this core only consumes the identity.
type User struct {
	ID   string
	Name string
	Role Role
}

// Role represents a caller's access level.
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator can resolve manual reviews in addition to normal operations
	RoleOperator Role = "operator"

	// RoleMember can operate only on accounts they own
	RoleMember Role = "member"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleMember:   true,
}

// IsValid checks if the role is a valid role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanReview checks if the role can resolve pending-review payments.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

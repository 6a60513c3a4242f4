package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	// RoleUnknown covers role values written by newer deployments.
	RoleUnknown Role = "unknown"
)

// ParseRole maps a stored role string to a known role, falling back to
// RoleUnknown rather than propagating unchecked strings.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleCustomer, RoleAdmin, RoleManager:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin || r == RoleManager
}

// User is the domain model for registered accounts.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

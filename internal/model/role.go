package model

import "fmt"

// Role is the closed set of actor roles. There is no third role: anything
// that does not parse to user or admin is rejected at the trust boundary.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates and returns a Role. Construct roles through this at
// trust boundaries (JWT claims, request payloads); direct casting bypasses
// validation.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// IsAdmin reports whether the role bypasses ownership checks.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

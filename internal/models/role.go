package models

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole canonicalizes role tokens coming from the auth boundary.
// The session layer is known to emit both lowercase and uppercase forms.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Caller is the resolved identity of the authenticated requester. It is
// passed explicitly into every service operation; services never read
// identity from ambient state.
type Caller struct {
	UserID string
	Role   Role
}

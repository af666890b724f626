package entity

import "strings"

type Role string

const (
	// RoleMember is every self-registered account.
	RoleMember Role = "member"

	// RoleDemo is the seeded public account. Authorization only lets it read.
	RoleDemo Role = "demo"
)

func (r Role) String() string {
	return string(r)
}

// Ensure maps unknown or blank roles to RoleMember.
func (r Role) Ensure() Role {
	switch Role(strings.ToLower(strings.TrimSpace(string(r)))) {
	case RoleDemo:
		return RoleDemo
	default:
		return RoleMember
	}
}

// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Roles

// Role is the authorization level carried in an admin token.
type Role string

const (
	// RoleOwner manages everything including cascading deletes and repairs.
	RoleOwner Role = "owner"

	// RoleEditor curates images, series and categories but cannot delete them.
	RoleEditor Role = "editor"
)

// AtLeast reports whether r meets or exceeds target.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

func (r Role) level() int {
	switch r {
	case RoleOwner:
		return 20
	case RoleEditor:
		return 10
	default:
		return 0
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.level() > 0
}

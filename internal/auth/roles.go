package auth

// Role is a staff member's role within an organization. The set is closed;
// any other string fails authorization.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleUser       Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStaff, RoleUser:
		return true
	}
	return false
}

// Authorize reports whether the claims' role is a member of allowed.
// An empty allowed set always denies, as does an unrecognized role.
func Authorize(c *Claims, allowed ...Role) bool {
	if c == nil || !c.Role.Valid() {
		return false
	}
	for _, r := range allowed {
		if c.Role == r {
			return true
		}
	}
	return false
}

package authz

import "fmt"

// Role represents a principal's role inside a tenant
type Role string

const (
	RoleUser        Role = "user"
	RoleCoach       Role = "coach"
	RoleManager     Role = "manager"
	RoleTenantAdmin Role = "tenant_admin"
	RoleSuperAdmin  Role = "super_admin"
)

// roleRank defines the total order over roles. A higher rank satisfies any
// requirement a lower rank would satisfy, within the same tenant scope.
var roleRank = map[Role]int{
	RoleUser:        0,
	RoleCoach:       1,
	RoleManager:     2,
	RoleTenantAdmin: 3,
	RoleSuperAdmin:  4,
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether this role meets the required role. Unknown roles
// on either side never satisfy anything.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// ParseRole converts a stored or claimed string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Roles returns all roles in ascending order.
func Roles() []Role {
	return []Role{RoleUser, RoleCoach, RoleManager, RoleTenantAdmin, RoleSuperAdmin}
}
